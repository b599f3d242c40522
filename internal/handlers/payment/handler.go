package payment

import (
	"context"
	"net/http"
	"resort/infras/otel"
	"resort/internal/domains/payment/model/dto"
	"resort/internal/domains/payment/service"
	refundDto "resort/internal/domains/refund/model/dto"
	refundService "resort/internal/domains/refund/service"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/validator"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Payment
	refund  refundService.Refund
	otel    otel.Otel
}

func New(service service.Payment, refund refundService.Refund, otel otel.Otel) Handler {
	return Handler{
		service: service,
		refund:  refund,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payment", func(routerGroup chi.Router) {
		routerGroup.Post("/checkout", handler.Checkout)
		routerGroup.Post("/success", handler.Success)
		routerGroup.Post("/failure", handler.Failure)
		routerGroup.Get("/refund", handler.GetRefunds)
		routerGroup.Post("/refund/applied", handler.RequestRefund)
		routerGroup.Post("/refund/approved", handler.ApproveRefund)
		routerGroup.Post("/refund/rejected", handler.RejectRefund)
	})
}

// serve runs one JSON command against a service call and answers 200 with its result.
func serve[Req, Res any](handler *Handler, w http.ResponseWriter, r *http.Request, name, failMsg string, call func(context.Context, Req) (Res, error)) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)
	defer scope.End()

	var req Req

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := call(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("actor", shared.Actor(ctx)).Msg(failMsg)

		response.WithError(w, err)

		return
	}

	scope.AddEvent(name + " by " + shared.Actor(ctx))

	response.WithJSON(w, http.StatusOK, res)
}

// Checkout opens a gateway order for a pending booking.
// @Summary Open a payment order
// @Description Creates a gateway order for the booking total recomputed from its line items.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Checkout Request"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/payment/checkout [post]
func (handler *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	serve[dto.CheckoutRequest](handler, w, r, "Checkout", "failed to open payment order", handler.service.Checkout)
}

// Success confirms a completed payment.
// @Summary Confirm a payment
// @Description Verifies the gateway signature and marks the booking paid.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.SuccessRequest true "Payment Success Request"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/payment/success [post]
func (handler *Handler) Success(w http.ResponseWriter, r *http.Request) {
	serve[dto.SuccessRequest](handler, w, r, "Success", "failed to confirm payment", handler.service.ConfirmSuccess)
}

// Failure records a failed payment attempt.
// @Summary Record a payment failure
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.FailureRequest true "Payment Failure Request"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/payment/failure [post]
// @Security BearerAuth
func (handler *Handler) Failure(w http.ResponseWriter, r *http.Request) {
	serve[dto.FailureRequest](handler, w, r, "Failure", "failed to record payment failure", handler.service.RecordFailure)
}

// RequestRefund lets the booking owner ask for a refund.
// @Summary Request a refund
// @Tags Refund
// @Accept json
// @Produce json
// @Param request body refundDto.RequestRefundRequest true "Refund Request"
// @Success 200 {object} refundDto.RefundResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/payment/refund/applied [post]
// @Security BearerAuth
func (handler *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	serve[refundDto.RequestRefundRequest](handler, w, r, "RequestRefund", "failed to request refund", handler.refund.Request)
}

// ApproveRefund executes a pending refund at the gateway.
// @Summary Approve a refund
// @Tags Refund
// @Accept json
// @Produce json
// @Param request body refundDto.ApproveRefundRequest true "Approve Refund Request"
// @Success 200 {object} refundDto.RefundResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/payment/refund/approved [post]
// @Security BearerAuth
func (handler *Handler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	serve[refundDto.ApproveRefundRequest](handler, w, r, "ApproveRefund", "failed to approve refund", handler.refund.Approve)
}

// RejectRefund declines a pending refund.
// @Summary Reject a refund
// @Tags Refund
// @Accept json
// @Produce json
// @Param request body refundDto.RejectRefundRequest true "Reject Refund Request"
// @Success 200 {object} refundDto.RefundResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/payment/refund/rejected [post]
// @Security BearerAuth
func (handler *Handler) RejectRefund(w http.ResponseWriter, r *http.Request) {
	serve[refundDto.RejectRefundRequest](handler, w, r, "RejectRefund", "failed to reject refund", handler.refund.Reject)
}

// GetRefunds lists pending and processed refunds.
// @Summary Get refunds
// @Tags Refund
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} refundDto.GetRefundsResponse
// @Failure 500 {object} response.Error
// @Router /v1/payment/refund [get]
// @Security BearerAuth
func (handler *Handler) GetRefunds(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRefunds")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.refund.GetAll(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get refunds")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
