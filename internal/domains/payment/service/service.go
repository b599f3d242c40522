//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

package service

import (
	"context"
	"errors"
	"fmt"
	"resort/config"
	"resort/infras/otel"
	"resort/infras/payment"
	bookingModel "resort/internal/domains/booking/model"
	bookingDto "resort/internal/domains/booking/model/dto"
	bookingRepo "resort/internal/domains/booking/repository"
	notificationDto "resort/internal/domains/notification/model/dto"
	notification "resort/internal/domains/notification/service"
	"resort/internal/domains/payment/model/dto"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/money"
	"resort/shared/timezone"
	"resort/shared/validator"

	"github.com/rs/zerolog/log"
)

const (
	msgAlreadyPaid  = "booking is already paid"
	msgStaleBooking = "booking changed while processing the payment, retry"
)

type Payment interface {
	Checkout(ctx context.Context, req dto.CheckoutRequest) (dto.CheckoutResponse, error)
	ConfirmSuccess(ctx context.Context, req dto.SuccessRequest) (dto.PaymentResponse, error)
	RecordFailure(ctx context.Context, req dto.FailureRequest) (dto.PaymentResponse, error)
}

type serviceImpl struct {
	repo     bookingRepo.Booking
	itemRepo bookingRepo.Item
	gateway  payment.Gateway
	notifier notification.Publisher
	cfg      *config.Config
	otel     otel.Otel
}

func New(repo bookingRepo.Booking, itemRepo bookingRepo.Item, gateway payment.Gateway, notifier notification.Publisher, cfg *config.Config, otel otel.Otel) Payment {
	return &serviceImpl{
		repo:     repo,
		itemRepo: itemRepo,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		otel:     otel,
	}
}

// unpaid matches the booking only while its payment has not succeeded.
func unpaid(bookingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    bookingID,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldPaymentStatus,
				Operator: gDto.FilterOperatorNotEq,
				Value:    bookingModel.PaymentStatusSuccess,
				Table:    bookingModel.TableName,
				ArgName:  "paid_status",
			},
		},
	}
}

func (s *serviceImpl) getBooking(ctx context.Context, id string) (bookingModel.Booking, error) {
	if err := validator.ValidateVar(id, "required,uuid"); err != nil {
		return bookingModel.Booking{}, err
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found")
	}

	return booking, nil
}

// Checkout opens a gateway order for the booking total recomputed from its
// persisted line items.
func (s *serviceImpl) Checkout(ctx context.Context, req dto.CheckoutRequest) (res dto.CheckoutResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Checkout")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if booking.IsPaid() {
		return res, failure.InvalidState(msgAlreadyPaid)
	}

	items, err := s.itemRepo.GetAll(ctx, bookingRepo.ItemOrder, bookingRepo.ItemsOf(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking items")

		return res, fmt.Errorf("failed to get booking items: %w", err)
	}

	total := 0.0
	for _, item := range items {
		total += item.Subtotal
	}

	total = money.Round2(total)

	if len(items) == 0 || total <= 0 {
		return res, failure.InvalidState("booking has nothing to pay")
	}

	currency := booking.Currency
	if currency == constant.Empty {
		currency = s.cfg.App.Currency
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Receipt:     booking.ID,
		AmountMinor: money.ToMinorUnits(total),
		Currency:    currency,
		Notes: map[string]string{
			"booking_id":   booking.ID,
			"product_type": booking.ProductType,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to create gateway order")

		return res, failure.Upstream("payment provider is unavailable")
	}

	update := dto.UpdateOrderRequest{
		PaymentStatus:  bookingModel.PaymentStatusPending,
		GatewayOrderID: order.ID,
	}

	if !money.Equal(total, booking.TotalAmount) {
		log.Warn().Str("booking_id", booking.ID).Float64("stored", booking.TotalAmount).Float64("items", total).Msg("booking total drifted from its items")

		update.TotalAmount = total
	}

	affected, err := s.repo.UpdateAffected(ctx, shared.TransformFields(update, shared.Actor(ctx)), unpaid(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to attach gateway order")

		return res, fmt.Errorf("failed to attach gateway order: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState(msgAlreadyPaid)
	}

	return dto.CheckoutResponse{
		Order:     order,
		BookingID: booking.ID,
		Amount:    total,
		Currency:  currency,
		Provider:  s.gateway.Name(),
	}, nil
}

// ConfirmSuccess verifies the gateway callback and marks the booking paid.
// Repeating the callback for the same payment returns the booking unchanged.
func (s *serviceImpl) ConfirmSuccess(ctx context.Context, req dto.SuccessRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ConfirmSuccess")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if booking.IsPaid() {
		if booking.PaymentID() == req.RazorpayPaymentID {
			res.FromModel(booking)

			return res, nil
		}

		return res, failure.InvalidState(msgAlreadyPaid)
	}

	if booking.OrderID() == constant.Empty || booking.OrderID() != req.RazorpayOrderID {
		return res, failure.InvalidState("order does not belong to this booking")
	}

	err = s.gateway.VerifyPayment(ctx, payment.Confirmation{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrNotCaptured) {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("payment verification rejected")

			return res, failure.BadRequest(err)
		}

		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to verify payment")

		return res, failure.Upstream("payment provider is unavailable")
	}

	now := timezone.Now()
	update := dto.UpdateSuccessRequest{
		PaymentStatus:    bookingModel.PaymentStatusSuccess,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		GatewaySignature: req.RazorpaySignature,
		PaidAt:           now,
	}

	affected, err := s.repo.UpdateAffected(ctx, shared.TransformFields(update, shared.Actor(ctx)), unpaid(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to mark booking paid")

		return res, fmt.Errorf("failed to mark booking paid: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState(msgStaleBooking)
	}

	booking.PaymentStatus = bookingModel.PaymentStatusSuccess
	booking.GatewayOrderID = bookingModel.Ref(req.RazorpayOrderID)
	booking.GatewayPaymentID = bookingModel.Ref(req.RazorpayPaymentID)
	booking.PaidAt = &now

	go func() {
		c := context.WithoutCancel(ctx)

		s.notifier.SendBookingConfirmation(c, notificationDto.BookingNotice{
			BookingID:   booking.ID,
			To:          booking.OwnerEmail,
			OwnerName:   booking.OwnerName,
			ProductType: booking.ProductType,
			ServiceDate: bookingDto.FormatDate(booking.ServiceDate),
			Amount:      booking.TotalAmount,
			Currency:    booking.Currency,
			PaymentID:   req.RazorpayPaymentID,
		})
	}()

	res.FromModel(booking)

	return res, nil
}

// RecordFailure stores the failure detail reported by the checkout widget. A
// paid booking is never downgraded.
func (s *serviceImpl) RecordFailure(ctx context.Context, req dto.FailureRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordFailure")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if booking.IsPaid() {
		return res, failure.InvalidState(msgAlreadyPaid)
	}

	now := timezone.Now()
	update := dto.UpdateFailureRequest{
		PaymentStatus:      bookingModel.PaymentStatusFailed,
		GatewayOrderID:     req.RazorpayOrderID,
		GatewayPaymentID:   req.RazorpayPaymentID,
		FailureReason:      req.FailureReason,
		FailureCode:        req.ErrorCode,
		FailureDescription: req.ErrorDescription,
		FailedAt:           now,
	}

	affected, err := s.repo.UpdateAffected(ctx, shared.TransformFields(update, shared.Actor(ctx)), unpaid(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to record payment failure")

		return res, fmt.Errorf("failed to record payment failure: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState(msgAlreadyPaid)
	}

	booking.PaymentStatus = bookingModel.PaymentStatusFailed
	booking.FailedAt = &now

	if req.RazorpayOrderID != "" {
		booking.GatewayOrderID = bookingModel.Ref(req.RazorpayOrderID)
	}

	if req.RazorpayPaymentID != "" {
		booking.GatewayPaymentID = bookingModel.Ref(req.RazorpayPaymentID)
	}

	if req.FailureReason != "" {
		booking.FailureReason = bookingModel.Ref(req.FailureReason)
	}

	if req.ErrorCode != "" {
		booking.FailureCode = bookingModel.Ref(req.ErrorCode)
	}

	if req.ErrorDescription != "" {
		booking.FailureDescription = bookingModel.Ref(req.ErrorDescription)
	}

	res.FromModel(booking)

	return res, nil
}
