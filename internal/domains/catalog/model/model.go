package model

import (
	"time"

	"resort/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "catalog_items"
	EntityName = "catalog"

	FieldID          = "id"
	FieldKind        = "kind"
	FieldName        = "name"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldPrice       = "price"
	FieldCapacity    = "capacity"
	FieldImages      = "images"
	FieldEventDate   = "event_date"
	FieldActive      = "active"
)

const (
	AddonTableName  = "catalog_addons"
	AddonEntityName = "catalog_addon"

	FieldAddonItemID = "item_id"
)

// Product kinds. A booking carries exactly one of them.
const (
	KindStay      = "stay"
	KindAdventure = "adventure"
	KindEvent     = "event"
)

type Item struct {
	ID          string         `db:"id"`
	Kind        string         `db:"kind"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Location    string         `db:"location"`
	Price       float64        `db:"price"`
	Capacity    int            `db:"capacity"`
	Images      pq.StringArray `db:"images"`
	EventDate   *time.Time     `db:"event_date"`
	Active      bool           `db:"active"`
	model.Metadata
}

// Addon is an optional extra sold together with a stay.
type Addon struct {
	ID     string  `db:"id"`
	ItemID string  `db:"item_id"`
	Name   string  `db:"name"`
	Price  float64 `db:"price"`
	Active bool    `db:"active"`
	model.Metadata
}
