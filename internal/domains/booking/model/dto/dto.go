package dto

import (
	"resort/internal/domains/booking/model"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/timezone"
	"time"
)

// AddonRequest selects a stay add-on. UnitPrice and Subtotal are optional
// client figures that are only checked for consistency.
type AddonRequest struct {
	AddonID   string   `json:"addon_id"   validate:"required,uuid"`
	Quantity  int      `json:"quantity"   validate:"required,gt=0"`
	UnitPrice *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Subtotal  *float64 `json:"subtotal"   validate:"omitempty,gte=0"`
}

type ItemRequest struct {
	CatalogItemID string         `json:"catalog_item_id" validate:"required,uuid"`
	Quantity      int            `json:"quantity"        validate:"required,gt=0"`
	UnitPrice     *float64       `json:"unit_price"      validate:"omitempty,gte=0"`
	Subtotal      *float64       `json:"subtotal"        validate:"omitempty,gte=0"`
	Addons        []AddonRequest `json:"addons"          validate:"omitempty,dive"`
}

// CreateBookingRequest is the pre-booking payload. TotalAmount is accepted for
// compatibility but never persisted.
type CreateBookingRequest struct {
	ProductType string        `json:"product_type" validate:"required,oneof=stay adventure event"`
	Items       []ItemRequest `json:"items"        validate:"required,min=1,dive"`
	ServiceDate string        `json:"service_date" validate:"required,datetime=2006-01-02"`
	CheckOut    string        `json:"check_out"    validate:"omitempty,datetime=2006-01-02"`
	TotalAmount *float64      `json:"total_amount" validate:"omitempty,gte=0"`
	OwnerName   string        `json:"owner_name"   validate:"required,max=100"`
	OwnerEmail  string        `json:"owner_email"  validate:"omitempty,email,max=100"`
	OwnerPhone  string        `json:"owner_phone"  validate:"omitempty,max=20"`
}

type CreateBookingResponse struct {
	BookingID   string  `json:"booking_id"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

type ItemResponse struct {
	ID            string  `json:"id"`
	CatalogItemID string  `json:"catalog_item_id"`
	Kind          string  `json:"kind"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int     `json:"quantity"`
	Nights        int     `json:"nights,omitempty"`
	Subtotal      float64 `json:"subtotal"`
}

func (r *ItemResponse) FromModel(m model.Item) {
	r.ID = m.ID
	r.CatalogItemID = m.CatalogItemID
	r.Kind = m.Kind
	r.Name = m.Name
	r.UnitPrice = m.UnitPrice
	r.Quantity = m.Quantity
	r.Nights = m.Nights
	r.Subtotal = m.Subtotal
}

type RefundResponse struct {
	BookingID       string  `json:"booking_id"`
	Requested       bool    `json:"requested"`
	Approved        bool    `json:"approved"`
	Status          string  `json:"status"`
	Percentage      int     `json:"percentage"`
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	GatewayRefundID string  `json:"gateway_refund_id,omitempty"`
	RequestedAt     string  `json:"requested_at,omitempty"`
	ProcessedAt     string  `json:"processed_at,omitempty"`
}

func (r *RefundResponse) FromModel(m model.Booking) {
	r.BookingID = m.ID
	r.Requested = m.RefundRequested
	r.Approved = m.RefundApproved
	r.Status = m.RefundState()
	r.Percentage = m.RefundPercentage
	r.Amount = m.RefundAmount
	r.Reason = model.Deref(m.RefundReason)
	r.RejectionReason = model.Deref(m.RefundRejectionReason)
	r.GatewayRefundID = model.Deref(m.GatewayRefundID)
	r.RequestedAt = formatTime(m.RefundRequestedAt)
	r.ProcessedAt = formatTime(m.RefundProcessedAt)
}

type BookingResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id,omitempty"`
	ProductType        string          `json:"product_type"`
	OwnerName          string          `json:"owner_name"`
	OwnerEmail         string          `json:"owner_email"`
	OwnerPhone         string          `json:"owner_phone,omitempty"`
	Items              []ItemResponse  `json:"items,omitempty"`
	TotalAmount        float64         `json:"total_amount"`
	Currency           string          `json:"currency"`
	ServiceDate        string          `json:"service_date"`
	EndDate            string          `json:"end_date,omitempty"`
	PaymentStatus      string          `json:"payment_status"`
	GatewayOrderID     string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID   string          `json:"gateway_payment_id,omitempty"`
	PaidAt             string          `json:"paid_at,omitempty"`
	FailureReason      string          `json:"failure_reason,omitempty"`
	FailureCode        string          `json:"failure_code,omitempty"`
	FailureDescription string          `json:"failure_description,omitempty"`
	FailedAt           string          `json:"failed_at,omitempty"`
	Refund             *RefundResponse `json:"refund,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(m model.Booking) {
	r.ID = m.ID
	r.UserID = m.OwnerID()
	r.ProductType = m.ProductType
	r.OwnerName = m.OwnerName
	r.OwnerEmail = m.OwnerEmail
	r.OwnerPhone = m.OwnerPhone
	r.TotalAmount = m.TotalAmount
	r.Currency = m.Currency
	r.ServiceDate = FormatDate(m.ServiceDate)
	r.PaymentStatus = m.PaymentStatus
	r.GatewayOrderID = m.OrderID()
	r.GatewayPaymentID = m.PaymentID()
	r.PaidAt = formatTime(m.PaidAt)
	r.FailureReason = model.Deref(m.FailureReason)
	r.FailureCode = model.Deref(m.FailureCode)
	r.FailureDescription = model.Deref(m.FailureDescription)
	r.FailedAt = formatTime(m.FailedAt)

	if m.EndDate != nil {
		r.EndDate = FormatDate(*m.EndDate)
	}

	if m.RefundRequested {
		r.Refund = &RefundResponse{}
		r.Refund.FromModel(m)
	}

	r.Metadata.FromModel(m.Metadata)
}

func (r *BookingResponse) WithItems(items []model.Item) {
	r.Items = make([]ItemResponse, len(items))
	for i, item := range items {
		r.Items[i].FromModel(item)
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, m := range models {
		r.Bookings[i].FromModel(m)
	}
}

// FormatDate renders a DATE column as written, whatever zone the driver attached.
func FormatDate(t time.Time) string {
	return timezone.CalendarDate(t).Format(constant.DateOnlyFormat)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return constant.Empty
	}

	return timezone.Format(*t, constant.DateFormat)
}
