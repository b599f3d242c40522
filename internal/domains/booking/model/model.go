package model

import (
	"resort/shared/model"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                    = "id"
	FieldUserID                = "user_id"
	FieldProductType           = "product_type"
	FieldOwnerName             = "owner_name"
	FieldOwnerEmail            = "owner_email"
	FieldOwnerPhone            = "owner_phone"
	FieldTotalAmount           = "total_amount"
	FieldCurrency              = "currency"
	FieldServiceDate           = "service_date"
	FieldEndDate               = "end_date"
	FieldPaymentStatus         = "payment_status"
	FieldGatewayOrderID        = "gateway_order_id"
	FieldGatewayPaymentID      = "gateway_payment_id"
	FieldGatewaySignature      = "gateway_signature"
	FieldPaidAt                = "paid_at"
	FieldFailureReason         = "failure_reason"
	FieldFailureCode           = "failure_code"
	FieldFailureDescription    = "failure_description"
	FieldFailedAt              = "failed_at"
	FieldRefundRequested       = "refund_requested"
	FieldRefundApproved        = "refund_approved"
	FieldRefundStatus          = "refund_status"
	FieldRefundPercentage      = "refund_percentage"
	FieldRefundAmount          = "refund_amount"
	FieldRefundReason          = "refund_reason"
	FieldRefundRejectionReason = "refund_rejection_reason"
	FieldGatewayRefundID       = "gateway_refund_id"
	FieldRefundRequestedAt     = "refund_requested_at"
	FieldRefundProcessedAt     = "refund_processed_at"
)

const (
	ItemTableName  = "booking_items"
	ItemEntityName = "booking_item"

	FieldItemBookingID = "booking_id"
	FieldItemPosition  = "position"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

const (
	RefundStatusPending   = "pending"
	RefundStatusApproved  = "approved"
	RefundStatusRejected  = "rejected"
	RefundStatusProcessed = "processed"
)

const (
	ItemKindItem  = "item"
	ItemKindAddon = "addon"
)

// Booking is one reservation of a stay, adventure or event. Gateway and refund
// columns stay NULL until the matching transition happens.
type Booking struct {
	ID                    string     `db:"id"`
	UserID                *string    `db:"user_id"`
	ProductType           string     `db:"product_type"`
	OwnerName             string     `db:"owner_name"`
	OwnerEmail            string     `db:"owner_email"`
	OwnerPhone            string     `db:"owner_phone"`
	TotalAmount           float64    `db:"total_amount"`
	Currency              string     `db:"currency"`
	ServiceDate           time.Time  `db:"service_date"`
	EndDate               *time.Time `db:"end_date"`
	PaymentStatus         string     `db:"payment_status"`
	GatewayOrderID        *string    `db:"gateway_order_id"`
	GatewayPaymentID      *string    `db:"gateway_payment_id"`
	GatewaySignature      *string    `db:"gateway_signature"`
	PaidAt                *time.Time `db:"paid_at"`
	FailureReason         *string    `db:"failure_reason"`
	FailureCode           *string    `db:"failure_code"`
	FailureDescription    *string    `db:"failure_description"`
	FailedAt              *time.Time `db:"failed_at"`
	RefundRequested       bool       `db:"refund_requested"`
	RefundApproved        bool       `db:"refund_approved"`
	RefundStatus          *string    `db:"refund_status"`
	RefundPercentage      int        `db:"refund_percentage"`
	RefundAmount          float64    `db:"refund_amount"`
	RefundReason          *string    `db:"refund_reason"`
	RefundRejectionReason *string    `db:"refund_rejection_reason"`
	GatewayRefundID       *string    `db:"gateway_refund_id"`
	RefundRequestedAt     *time.Time `db:"refund_requested_at"`
	RefundProcessedAt     *time.Time `db:"refund_processed_at"`
	model.Metadata
}

func (b Booking) OwnerID() string {
	return Deref(b.UserID)
}

func (b Booking) OrderID() string {
	return Deref(b.GatewayOrderID)
}

func (b Booking) PaymentID() string {
	return Deref(b.GatewayPaymentID)
}

func (b Booking) RefundState() string {
	return Deref(b.RefundStatus)
}

func (b Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusSuccess
}

// Item is a priced line of a booking. Add-ons of a stay follow their room line.
type Item struct {
	ID            string  `db:"id"`
	BookingID     string  `db:"booking_id"`
	CatalogItemID string  `db:"catalog_item_id"`
	Kind          string  `db:"kind"`
	Name          string  `db:"name"`
	UnitPrice     float64 `db:"unit_price"`
	Quantity      int     `db:"quantity"`
	Nights        int     `db:"nights"`
	Subtotal      float64 `db:"subtotal"`
	Position      int     `db:"position"`
	model.Metadata
}

func Deref[T any](value *T) T {
	var zero T
	if value == nil {
		return zero
	}

	return *value
}

func Ref[T any](value T) *T {
	return &value
}
