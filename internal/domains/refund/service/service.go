//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

package service

import (
	"context"
	"fmt"
	"resort/config"
	"resort/infras/otel"
	"resort/infras/payment"
	bookingModel "resort/internal/domains/booking/model"
	bookingDto "resort/internal/domains/booking/model/dto"
	bookingRepo "resort/internal/domains/booking/repository"
	notificationDto "resort/internal/domains/notification/model/dto"
	notification "resort/internal/domains/notification/service"
	"resort/internal/domains/refund/model"
	"resort/internal/domains/refund/model/dto"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/money"
	"resort/shared/timezone"
	"resort/shared/validator"

	"github.com/rs/zerolog/log"
)

const argCurrentStatus = "current_status"

type Refund interface {
	Request(ctx context.Context, req dto.RequestRefundRequest) (bookingDto.RefundResponse, error)
	Approve(ctx context.Context, req dto.ApproveRefundRequest) (bookingDto.RefundResponse, error)
	Reject(ctx context.Context, req dto.RejectRefundRequest) (bookingDto.RefundResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams) (bookingDto.GetBookingsResponse, error)
}

type serviceImpl struct {
	repo     bookingRepo.Booking
	gateway  payment.Gateway
	notifier notification.Publisher
	cfg      *config.Config
	otel     otel.Otel
}

func New(repo bookingRepo.Booking, gateway payment.Gateway, notifier notification.Publisher, cfg *config.Config, otel otel.Otel) Refund {
	return &serviceImpl{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		otel:     otel,
	}
}

func byID(bookingID string) gDto.Filter {
	return gDto.Filter{
		Field:    bookingModel.FieldID,
		Operator: gDto.FilterOperatorEq,
		Value:    bookingID,
		Table:    bookingModel.TableName,
	}
}

func inStatus(status string) gDto.Filter {
	return gDto.Filter{
		Field:    bookingModel.FieldRefundStatus,
		Operator: gDto.FilterOperatorEq,
		Value:    status,
		Table:    bookingModel.TableName,
		ArgName:  argCurrentStatus,
	}
}

// requestable matches a paid booking whose refund is absent, pending or rejected.
func requestable(bookingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			byID(bookingID),
			gDto.Filter{
				Field:    bookingModel.FieldPaymentStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    bookingModel.PaymentStatusSuccess,
				Table:    bookingModel.TableName,
				ArgName:  "paid_status",
			},
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorOr,
				Filters: []any{
					gDto.Filter{
						Field:    bookingModel.FieldRefundStatus,
						Operator: gDto.FilterIsNull,
						Table:    bookingModel.TableName,
					},
					gDto.Filter{
						Field:    bookingModel.FieldRefundStatus,
						Operator: gDto.FilterOperatorIn,
						Value:    []string{bookingModel.RefundStatusPending, bookingModel.RefundStatusRejected},
						Table:    bookingModel.TableName,
						ArgName:  argCurrentStatus,
					},
				},
			},
		},
	}
}

// claimable matches a requested refund still waiting for a decision.
func claimable(bookingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			byID(bookingID),
			gDto.Filter{
				Field:    bookingModel.FieldRefundRequested,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
				Table:    bookingModel.TableName,
				ArgName:  "was_requested",
			},
			inStatus(bookingModel.RefundStatusPending),
		},
	}
}

func claimed(bookingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			byID(bookingID),
			inStatus(bookingModel.RefundStatusApproved),
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

// Request records the owner's refund request with the share the schedule
// grants today. A pending or rejected request is replaced.
func (s *serviceImpl) Request(ctx context.Context, req dto.RequestRefundRequest) (res bookingDto.RefundResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RequestRefund")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	callerID := shared.UserID(ctx)
	if callerID == constant.Empty || booking.OwnerID() != callerID {
		return res, failure.Forbidden("only the booking owner can request a refund")
	}

	product, ok := bookingModel.Product(booking.ProductType)
	if !ok || !product.Refundable {
		return res, failure.InvalidState(fmt.Sprintf("%s bookings are not refundable", booking.ProductType))
	}

	if !booking.IsPaid() {
		return res, failure.InvalidState("only paid bookings can be refunded")
	}

	switch booking.RefundState() {
	case bookingModel.RefundStatusApproved, bookingModel.RefundStatusProcessed:
		return res, failure.InvalidState("refund is already " + booking.RefundState())
	}

	now := timezone.Now()
	daysLeft := model.DaysLeft(booking.ServiceDate, timezone.Today())
	percentage := model.Percentage(product.RefundTiers, daysLeft)
	amount := model.Amount(percentage, booking.TotalAmount)

	var reason *string
	if req.Reason != constant.Empty {
		reason = bookingModel.Ref(req.Reason)
	}

	fields := map[string]any{
		bookingModel.FieldRefundRequested:       true,
		bookingModel.FieldRefundApproved:        false,
		bookingModel.FieldRefundStatus:          bookingModel.RefundStatusPending,
		bookingModel.FieldRefundPercentage:      percentage,
		bookingModel.FieldRefundAmount:          amount,
		bookingModel.FieldRefundReason:          reason,
		bookingModel.FieldRefundRejectionReason: nil,
		bookingModel.FieldRefundRequestedAt:     now,
		constant.FieldModifiedAt:                now,
		constant.FieldModifiedBy:                shared.Actor(ctx),
	}

	affected, err := s.repo.UpdateAffected(ctx, fields, requestable(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to record refund request")

		return res, fmt.Errorf("failed to record refund request: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState("refund can no longer be requested")
	}

	log.Info().Str("booking_id", booking.ID).Int("days_left", daysLeft).Int("percentage", percentage).Msg("refund requested")

	booking.RefundRequested = true
	booking.RefundApproved = false
	booking.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusPending)
	booking.RefundPercentage = percentage
	booking.RefundAmount = amount
	booking.RefundReason = reason
	booking.RefundRejectionReason = nil
	booking.RefundRequestedAt = &now

	go func() {
		c := context.WithoutCancel(ctx)

		s.notifier.SendRefundRequested(c, refundNotice(booking))
	}()

	res.FromModel(booking)

	return res, nil
}

// Approve claims the pending refund, executes it at the gateway and marks it
// processed. Only one concurrent approval can win the claim.
func (s *serviceImpl) Approve(ctx context.Context, req dto.ApproveRefundRequest) (res bookingDto.RefundResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ApproveRefund")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	switch {
	case !booking.RefundRequested:
		return res, failure.InvalidState("no refund was requested for this booking")
	case booking.RefundState() == bookingModel.RefundStatusProcessed:
		return res, failure.InvalidState("refund is already processed")
	case !booking.IsPaid() || booking.PaymentID() == constant.Empty:
		return res, failure.InvalidState("booking has no successful payment to refund")
	case booking.RefundPercentage <= 0 || booking.RefundAmount <= 0:
		return res, failure.InvalidState("no refund is due for this booking")
	}

	actor := shared.Actor(ctx)

	claim := dto.UpdateClaimRequest{RefundStatus: bookingModel.RefundStatusApproved}
	claimFields := shared.TransformFields(claim, actor)
	claimFields[bookingModel.FieldRefundApproved] = true

	affected, err := s.repo.UpdateAffected(ctx, claimFields, claimable(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to claim refund")

		return res, fmt.Errorf("failed to claim refund: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState("refund is not pending")
	}

	refund, err := s.gateway.Refund(ctx, payment.RefundRequest{
		PaymentID:   booking.PaymentID(),
		AmountMinor: money.ToMinorUnits(booking.RefundAmount),
		Notes:       map[string]string{"booking_id": booking.ID},
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to execute gateway refund")

		s.releaseClaim(ctx, booking.ID, actor)

		return res, failure.Upstream("payment provider could not process the refund")
	}

	now := timezone.Now()
	processed := dto.UpdateProcessedRequest{
		RefundStatus:      bookingModel.RefundStatusProcessed,
		GatewayRefundID:   refund.ID,
		RefundProcessedAt: now,
	}

	if err = s.repo.Update(ctx, shared.TransformFields(processed, actor), claimed(booking.ID)); err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Str("refund_id", refund.ID).Msg("failed to mark refund processed")

		return res, fmt.Errorf("failed to mark refund processed: %w", err)
	}

	booking.RefundApproved = true
	booking.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusProcessed)
	booking.GatewayRefundID = bookingModel.Ref(refund.ID)
	booking.RefundProcessedAt = &now

	go func() {
		c := context.WithoutCancel(ctx)

		s.notifier.SendRefundProcessed(c, refundNotice(booking))
	}()

	res.FromModel(booking)

	return res, nil
}

// releaseClaim puts a claimed refund back to pending after a gateway failure.
func (s *serviceImpl) releaseClaim(ctx context.Context, bookingID, actor string) {
	release := dto.UpdateClaimRequest{RefundStatus: bookingModel.RefundStatusPending}
	fields := shared.TransformFields(release, actor)
	fields[bookingModel.FieldRefundApproved] = false

	if err := s.repo.Update(ctx, fields, claimed(bookingID)); err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to release refund claim")
	}
}

func (s *serviceImpl) Reject(ctx context.Context, req dto.RejectRefundRequest) (res bookingDto.RefundResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RejectRefund")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelBookingIDAttribute, req.BookingID)

	booking, err := s.getBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if !booking.RefundRequested || booking.RefundState() != bookingModel.RefundStatusPending {
		return res, failure.InvalidState("refund is not pending")
	}

	rejected := dto.UpdateRejectedRequest{
		RefundStatus:          bookingModel.RefundStatusRejected,
		RefundRejectionReason: req.Reason,
	}

	affected, err := s.repo.UpdateAffected(ctx, shared.TransformFields(rejected, shared.Actor(ctx)), claimable(booking.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to reject refund")

		return res, fmt.Errorf("failed to reject refund: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState("refund is not pending")
	}

	booking.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusRejected)
	booking.RefundRejectionReason = bookingModel.Ref(req.Reason)

	res.FromModel(booking)

	return res, nil
}

// GetAll lists refund requests awaiting a decision or already paid out.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams) (res bookingDto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAllRefunds")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldRefundRequested,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldRefundStatus,
				Operator: gDto.FilterOperatorIn,
				Value:    []string{bookingModel.RefundStatusPending, bookingModel.RefundStatusProcessed},
				Table:    bookingModel.TableName,
			},
		},
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count refunds")

		return res, fmt.Errorf("failed to count refunds: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get refunds")

		return res, fmt.Errorf("failed to get refunds: %w", err)
	}

	res.FromModels(bookings, total, req.Limit)

	return res, nil
}

func refundNotice(booking bookingModel.Booking) notificationDto.RefundNotice {
	return notificationDto.RefundNotice{
		BookingID:  booking.ID,
		To:         booking.OwnerEmail,
		OwnerName:  booking.OwnerName,
		Percentage: booking.RefundPercentage,
		Amount:     booking.RefundAmount,
		Currency:   booking.Currency,
		Reason:     bookingModel.Deref(booking.RefundReason),
		RefundID:   bookingModel.Deref(booking.GatewayRefundID),
	}
}
