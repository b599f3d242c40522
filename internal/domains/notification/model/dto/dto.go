package dto

import (
	"fmt"

	"resort/internal/domains/notification/model"
	"resort/shared/timezone"
)

type BookingNotice struct {
	BookingID   string
	To          string
	OwnerName   string
	ProductType string
	ServiceDate string
	Amount      float64
	Currency    string
	PaymentID   string
}

func (n BookingNotice) ToEvent() model.Event {
	return model.Event{
		Type:    model.TypeBookingConfirmation,
		To:      n.To,
		Subject: fmt.Sprintf("Your %s booking is confirmed", n.ProductType),
		Data: map[string]any{
			model.DataBookingID:   n.BookingID,
			model.DataOwnerName:   n.OwnerName,
			model.DataProductType: n.ProductType,
			model.DataServiceDate: n.ServiceDate,
			model.DataAmount:      formatAmount(n.Amount),
			model.DataCurrency:    n.Currency,
			model.DataPaymentID:   n.PaymentID,
		},
		OccurredAt: timezone.Now(),
	}
}

type RefundNotice struct {
	BookingID  string
	To         string
	OwnerName  string
	Percentage int
	Amount     float64
	Currency   string
	Reason     string
	RefundID   string
}

func (n RefundNotice) ToEvent(eventType string) model.Event {
	subject := "We received your refund request"
	if eventType == model.TypeRefundProcessed {
		subject = "Your refund has been processed"
	}

	return model.Event{
		Type:    eventType,
		To:      n.To,
		Subject: subject,
		Data: map[string]any{
			model.DataBookingID:  n.BookingID,
			model.DataOwnerName:  n.OwnerName,
			model.DataPercentage: n.Percentage,
			model.DataAmount:     formatAmount(n.Amount),
			model.DataCurrency:   n.Currency,
			model.DataReason:     n.Reason,
			model.DataRefundID:   n.RefundID,
		},
		OccurredAt: timezone.Now(),
	}
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
