// Package model holds the refund schedule applied to paid bookings.
package model

import (
	"math"
	"resort/internal/domains/booking/model"
	"resort/shared/money"
	"resort/shared/timezone"
	"time"
)

const (
	hoursPerDay = 24
	fullRefund  = 100
)

// DaysLeft counts the calendar days from today until the service date. Past
// dates give a negative count.
func DaysLeft(serviceDate, today time.Time) int {
	diff := timezone.CalendarDate(serviceDate).Sub(timezone.CalendarDate(today))

	return int(math.Ceil(diff.Hours() / hoursPerDay))
}

// Percentage returns the share of the first tier the days left reach. Tiers
// are ordered by descending MinDays.
func Percentage(tiers []model.RefundTier, daysLeft int) int {
	for _, tier := range tiers {
		if daysLeft >= tier.MinDays {
			return tier.Percentage
		}
	}

	return 0
}

func Amount(percentage int, total float64) float64 {
	return money.Round2(float64(percentage) / fullRefund * total)
}
