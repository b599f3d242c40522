package dto

import (
	"mime/multipart"
	"resort/internal/domains/catalog/model"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	gModel "resort/shared/model"
	"resort/shared/timezone"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CreateItemRequest struct {
	Kind        string   `json:"kind"        validate:"required,oneof=stay adventure event"`
	Name        string   `json:"name"        validate:"required,min=3,max=150"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Location    string   `json:"location"    validate:"omitempty,max=255"`
	Price       float64  `json:"price"       validate:"required,gt=0"`
	Capacity    int      `json:"capacity"    validate:"omitempty,min=0"`
	Images      []string `json:"images"      validate:"omitempty,dive,url"`
	EventDate   string   `json:"event_date"  validate:"omitempty,datetime=2006-01-02"`
	Active      *bool    `json:"active"`
}

func (c *CreateItemRequest) ToModel(user string, eventDate *time.Time) model.Item {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Item{
		ID:          uuid.NewString(),
		Kind:        c.Kind,
		Name:        c.Name,
		Description: c.Description,
		Location:    c.Location,
		Price:       c.Price,
		Capacity:    c.Capacity,
		Images:      pq.StringArray(c.Images),
		EventDate:   eventDate,
		Active:      active,
		Metadata:    gModel.NewMetadata(timezone.Now(), user),
	}
}

type CreateItemResponse struct {
	ID string `json:"id"`
}

// UpdateItemRequest is a partial update. Only non-zero fields are written.
type UpdateItemRequest struct {
	Name        *string        `db:"name"        json:"name"        validate:"omitempty,min=3,max=150"`
	Description *string        `db:"description" json:"description" validate:"omitempty,max=2000"`
	Location    *string        `db:"location"    json:"location"    validate:"omitempty,max=255"`
	Price       *float64       `db:"price"       json:"price"       validate:"omitempty,gt=0"`
	Capacity    *int           `db:"capacity"    json:"capacity"    validate:"omitempty,min=0"`
	Images      pq.StringArray `db:"images"      json:"images"      validate:"omitempty,dive,url"`
	EventDate   *string        `json:"event_date"  validate:"omitempty,datetime=2006-01-02"`
	Active      *bool          `db:"active"      json:"active"`
}

type AddonResponse struct {
	ID     string  `json:"id"`
	ItemID string  `json:"item_id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}

func (r *AddonResponse) FromModel(m model.Addon) {
	r.ID = m.ID
	r.ItemID = m.ItemID
	r.Name = m.Name
	r.Price = m.Price
	r.Active = m.Active
}

func AddonsFromModels(models []model.Addon) []AddonResponse {
	res := make([]AddonResponse, len(models))
	for i, m := range models {
		res[i].FromModel(m)
	}

	return res
}

type ItemResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Price       float64         `json:"price"`
	Capacity    int             `json:"capacity"`
	Images      []string        `json:"images"`
	EventDate   string          `json:"event_date,omitempty"`
	Active      bool            `json:"active"`
	Addons      []AddonResponse `json:"addons,omitempty"`
	gDto.Metadata
}

func (r *ItemResponse) FromModel(m model.Item) {
	r.ID = m.ID
	r.Kind = m.Kind
	r.Name = m.Name
	r.Description = m.Description
	r.Location = m.Location
	r.Price = m.Price
	r.Capacity = m.Capacity
	r.Images = []string(m.Images)
	r.Active = m.Active

	if m.EventDate != nil {
		r.EventDate = timezone.CalendarDate(*m.EventDate).Format(constant.DateOnlyFormat)
	}

	r.Metadata.FromModel(m.Metadata)
}

type GetItemsResponse struct {
	Items     []ItemResponse `json:"items"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetItemsResponse) FromModels(models []model.Item, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Items = make([]ItemResponse, len(models))
	for i, m := range models {
		r.Items[i].FromModel(m)
	}
}

type CreateAddonRequest struct {
	Name   string  `json:"name"   validate:"required,min=2,max=150"`
	Price  float64 `json:"price"  validate:"required,gt=0"`
	Active *bool   `json:"active"`
}

func (c *CreateAddonRequest) ToModel(itemID, user string) model.Addon {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Addon{
		ID:       uuid.NewString(),
		ItemID:   itemID,
		Name:     c.Name,
		Price:    c.Price,
		Active:   active,
		Metadata: gModel.NewMetadata(timezone.Now(), user),
	}
}

type UploadImageRequest struct {
	Image     *multipart.FileHeader `json:"image"                swaggerignore:"true"                 validate:"required,maxfilesize=5,mimetypes=image/png image/jpg image/jpeg image/webp"`
	ImageFile multipart.File        `json:"-"`
	Kind      string                `json:"kind"                 validate:"omitempty,oneof=stay adventure event"`
}

type UploadImageResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

func (r *UploadImageResponse) FromModel(url, fileName string) {
	r.URL = url
	r.FileName = fileName
}

type DeleteImagesRequest struct {
	ImageURLs []string `json:"image_urls" validate:"required,min=1,dive,url"`
}
