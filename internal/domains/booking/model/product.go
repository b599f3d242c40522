package model

import catalogModel "resort/internal/domains/catalog/model"

// RefundTier grants Percentage when at least MinDays remain before the service date.
type RefundTier struct {
	MinDays    int
	Percentage int
}

// ProductType carries everything that differs between stays, adventures and events.
type ProductType struct {
	Kind             string
	ServiceDateLabel string
	PerNight         bool
	AllowsAddons     bool
	Refundable       bool
	RefundTiers      []RefundTier
}

// Tiers are ordered from the most generous down.
var standardRefundTiers = []RefundTier{
	{MinDays: 7, Percentage: 100},
	{MinDays: 6, Percentage: 75},
	{MinDays: 5, Percentage: 50},
	{MinDays: 4, Percentage: 25},
}

var products = map[string]ProductType{
	catalogModel.KindStay: {
		Kind:             catalogModel.KindStay,
		ServiceDateLabel: "check_in",
		PerNight:         true,
		AllowsAddons:     true,
		Refundable:       true,
		RefundTiers:      standardRefundTiers,
	},
	catalogModel.KindAdventure: {
		Kind:             catalogModel.KindAdventure,
		ServiceDateLabel: "adventure_date",
	},
	catalogModel.KindEvent: {
		Kind:             catalogModel.KindEvent,
		ServiceDateLabel: "event_date",
		Refundable:       true,
		RefundTiers:      standardRefundTiers,
	},
}

func Product(kind string) (ProductType, bool) {
	product, ok := products[kind]

	return product, ok
}
