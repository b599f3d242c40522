package dto

import (
	bookingDto "resort/internal/domains/booking/model/dto"
	gDto "resort/shared/dto"
	"time"
)

type (
	RefundResponse     = bookingDto.RefundResponse
	GetRefundsResponse = bookingDto.GetBookingsResponse
)

type RequestRefundRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Reason    string `json:"reason"     validate:"omitempty,max=500"`
}

// UnmarshalJSON also accepts "bookingID", the key older clients send.
func (r *RequestRefundRequest) UnmarshalJSON(data []byte) error {
	type plain RequestRefundRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingID": &r.BookingID,
	})
}

type ApproveRefundRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

func (r *ApproveRefundRequest) UnmarshalJSON(data []byte) error {
	type plain ApproveRefundRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingID": &r.BookingID,
	})
}

type RejectRefundRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Reason    string `json:"reason"     validate:"required,max=500"`
}

func (r *RejectRefundRequest) UnmarshalJSON(data []byte) error {
	type plain RejectRefundRequest

	return gDto.DecodeWithAliases(data, (*plain)(r), map[string]*string{
		"bookingID": &r.BookingID,
	})
}

type UpdateClaimRequest struct {
	RefundStatus string `db:"refund_status"`
}

type UpdateProcessedRequest struct {
	RefundStatus      string    `db:"refund_status"`
	GatewayRefundID   string    `db:"gateway_refund_id"`
	RefundProcessedAt time.Time `db:"refund_processed_at"`
}

type UpdateRejectedRequest struct {
	RefundStatus          string `db:"refund_status"`
	RefundRejectionReason string `db:"refund_rejection_reason"`
}
