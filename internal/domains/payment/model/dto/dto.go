package dto

import (
	"resort/infras/payment"
	"resort/internal/domains/booking/model"
	bookingDto "resort/internal/domains/booking/model/dto"
	gDto "resort/shared/dto"
	"time"
)

type CheckoutRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

// UnmarshalJSON also accepts the camelCase "bookingId" key.
func (r *CheckoutRequest) UnmarshalJSON(data []byte) error {
	type plain CheckoutRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingId": &r.BookingID,
	})
}

type CheckoutResponse struct {
	Order     payment.Order `json:"order"`
	BookingID string        `json:"booking_id"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Provider  string        `json:"provider"`
}

// SuccessRequest carries the fields the checkout widget hands back after a
// completed payment.
type SuccessRequest struct {
	BookingID         string `json:"booking_id"          validate:"required,uuid"`
	RazorpayOrderID   string `json:"razorpay_order_id"   validate:"required,max=100"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required,max=100"`
	RazorpaySignature string `json:"razorpay_signature"  validate:"omitempty,max=256"`
}

func (r *SuccessRequest) UnmarshalJSON(data []byte) error {
	type plain SuccessRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingId": &r.BookingID,
	})
}

type FailureRequest struct {
	BookingID         string `json:"booking_id"          validate:"required,uuid"`
	RazorpayOrderID   string `json:"razorpay_order_id"   validate:"omitempty,max=100"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"omitempty,max=100"`
	FailureReason     string `json:"failure_reason"      validate:"omitempty,max=255"`
	ErrorCode         string `json:"error_code"          validate:"omitempty,max=100"`
	ErrorDescription  string `json:"error_description"   validate:"omitempty,max=500"`
}

func (r *FailureRequest) UnmarshalJSON(data []byte) error {
	type plain FailureRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingId": &r.BookingID,
		"failureReason": &r.FailureReason,
		"errorCode": &r.ErrorCode,
		"errorDescription": &r.ErrorDescription,
	})
}

// PaymentResponse is the booking subset returned by payment transitions.
type PaymentResponse struct {
	BookingID          string  `json:"booking_id"`
	PaymentStatus      string  `json:"payment_status"`
	TotalAmount        float64 `json:"total_amount"`
	Currency           string  `json:"currency"`
	GatewayOrderID     string  `json:"gateway_order_id,omitempty"`
	GatewayPaymentID   string  `json:"gateway_payment_id,omitempty"`
	PaidAt             string  `json:"paid_at,omitempty"`
	FailureReason      string  `json:"failure_reason,omitempty"`
	FailureCode        string  `json:"failure_code,omitempty"`
	FailureDescription string  `json:"failure_description,omitempty"`
	FailedAt           string  `json:"failed_at,omitempty"`
}

func (r *PaymentResponse) FromModel(m model.Booking) {
	full := bookingDto.BookingResponse{}
	full.FromModel(m)

	r.BookingID = full.ID
	r.PaymentStatus = full.PaymentStatus
	r.TotalAmount = full.TotalAmount
	r.Currency = full.Currency
	r.GatewayOrderID = full.GatewayOrderID
	r.GatewayPaymentID = full.GatewayPaymentID
	r.PaidAt = full.PaidAt
	r.FailureReason = full.FailureReason
	r.FailureCode = full.FailureCode
	r.FailureDescription = full.FailureDescription
	r.FailedAt = full.FailedAt
}

type UpdateOrderRequest struct {
	PaymentStatus  string  `db:"payment_status"`
	GatewayOrderID string  `db:"gateway_order_id"`
	TotalAmount    float64 `db:"total_amount"`
}

type UpdateSuccessRequest struct {
	PaymentStatus    string    `db:"payment_status"`
	GatewayOrderID   string    `db:"gateway_order_id"`
	GatewayPaymentID string    `db:"gateway_payment_id"`
	GatewaySignature string    `db:"gateway_signature"`
	PaidAt           time.Time `db:"paid_at"`
}

type UpdateFailureRequest struct {
	PaymentStatus      string    `db:"payment_status"`
	GatewayOrderID     string    `db:"gateway_order_id"`
	GatewayPaymentID   string    `db:"gateway_payment_id"`
	FailureReason      string    `db:"failure_reason"`
	FailureCode        string    `db:"failure_code"`
	FailureDescription string    `db:"failure_description"`
	FailedAt           time.Time `db:"failed_at"`
}
