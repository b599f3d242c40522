package model

import "time"

const (
	TypeOTP                 = "otp"
	TypeBookingConfirmation = "booking_confirmation"
	TypeRefundRequested     = "refund_requested"
	TypeRefundProcessed     = "refund_processed"
)

const (
	DataCode        = "code"
	DataTTLMinutes  = "ttl_minutes"
	DataBookingID   = "booking_id"
	DataOwnerName   = "owner_name"
	DataProductType = "product_type"
	DataServiceDate = "service_date"
	DataAmount      = "amount"
	DataCurrency    = "currency"
	DataPaymentID   = "payment_id"
	DataPercentage  = "percentage"
	DataReason      = "reason"
	DataRefundID    = "refund_id"
)

// Event is the message carried on the notification topic. Data holds the
// template values for Type.
type Event struct {
	Type       string         `json:"type"`
	To         string         `json:"to"`
	Subject    string         `json:"subject"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}
