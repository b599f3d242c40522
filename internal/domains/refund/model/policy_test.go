package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	bookingModel "resort/internal/domains/booking/model"
	catalogModel "resort/internal/domains/catalog/model"
	"resort/internal/domains/refund/model"
)

func TestDaysLeft(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		serviceDate time.Time
		want        int
	}{
		{name: "same day", serviceDate: today, want: 0},
		{name: "tomorrow", serviceDate: today.AddDate(0, 0, 1), want: 1},
		{name: "ten days out", serviceDate: today.AddDate(0, 0, 10), want: 10},
		{name: "yesterday", serviceDate: today.AddDate(0, 0, -1), want: -1},
		{
			name:        "date column in another zone",
			serviceDate: time.Date(2026, 10, 23, 0, 0, 0, 0, time.FixedZone("IST", 19800)),
			want:        7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.DaysLeft(tt.serviceDate, today))
		})
	}
}

func TestPercentage(t *testing.T) {
	stay, ok := bookingModel.Product(catalogModel.KindStay)
	assert.True(t, ok)

	tests := []struct {
		name     string
		daysLeft int
		want     int
	}{
		{name: "ten days", daysLeft: 10, want: 100},
		{name: "seven days", daysLeft: 7, want: 100},
		{name: "six days", daysLeft: 6, want: 75},
		{name: "five days", daysLeft: 5, want: 50},
		{name: "four days", daysLeft: 4, want: 25},
		{name: "three days", daysLeft: 3, want: 0},
		{name: "same day", daysLeft: 0, want: 0},
		{name: "past date", daysLeft: -2, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Percentage(stay.RefundTiers, tt.daysLeft))
		})
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, 2200.0, model.Amount(100, 2200))
	assert.Equal(t, 1650.0, model.Amount(75, 2200))
	assert.Equal(t, 333.34, model.Amount(25, 1333.35))
	assert.Equal(t, 0.0, model.Amount(0, 2200))
}
