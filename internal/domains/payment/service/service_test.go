package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/otel/mocks"
	"resort/infras/payment"
	paymentMocks "resort/infras/payment/mocks"
	bookingMocks "resort/internal/domains/booking/mocks"
	bookingModel "resort/internal/domains/booking/model"
	notificationMocks "resort/internal/domains/notification/mocks"
	notificationDto "resort/internal/domains/notification/model/dto"
	"resort/internal/domains/payment/model/dto"
	"resort/internal/domains/payment/service"
	gDto "resort/shared/dto"
	"resort/shared/failure"
)

const (
	bookingID = "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"
	orderID   = "order_NkX9v3T1"
	paymentID = "pay_NkXA8c2Q"
)

type paymentFixture struct {
	svc      service.Payment
	repo     *bookingMocks.MockBooking
	itemRepo *bookingMocks.MockItem
	gateway  *paymentMocks.MockGateway
	notifier *notificationMocks.MockPublisher
}

func newFixture(t *testing.T) paymentFixture {
	ctrl := gomock.NewController(t)

	f := paymentFixture{
		repo:     bookingMocks.NewMockBooking(ctrl),
		itemRepo: bookingMocks.NewMockItem(ctrl),
		gateway:  paymentMocks.NewMockGateway(ctrl),
		notifier: notificationMocks.NewMockPublisher(ctrl),
	}

	cfg := &config.Config{}
	cfg.App.Currency = "INR"

	f.gateway.EXPECT().Name().Return(payment.ProviderRazorpay).AnyTimes()

	f.svc = service.New(f.repo, f.itemRepo, f.gateway, f.notifier, cfg, mocks.NewOtel())

	return f
}

func pendingBooking() bookingModel.Booking {
	return bookingModel.Booking{
		ID:            bookingID,
		ProductType:   "stay",
		OwnerName:     "Asha",
		OwnerEmail:    "guest@resort.test",
		TotalAmount:   2200,
		Currency:      "INR",
		ServiceDate:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		PaymentStatus: bookingModel.PaymentStatusPending,
	}
}

func orderedBooking() bookingModel.Booking {
	b := pendingBooking()
	b.GatewayOrderID = bookingModel.Ref(orderID)

	return b
}

func paidBooking() bookingModel.Booking {
	b := orderedBooking()
	b.PaymentStatus = bookingModel.PaymentStatusSuccess
	b.GatewayPaymentID = bookingModel.Ref(paymentID)
	b.PaidAt = bookingModel.Ref(time.Date(2026, 10, 20, 9, 30, 0, 0, time.UTC))

	return b
}

func stayItems() []bookingModel.Item {
	return []bookingModel.Item{
		{ID: "i1", BookingID: bookingID, Kind: bookingModel.ItemKindItem, UnitPrice: 1000, Quantity: 1, Nights: 2, Subtotal: 2000},
		{ID: "i2", BookingID: bookingID, Kind: bookingModel.ItemKindAddon, UnitPrice: 200, Quantity: 1, Subtotal: 200, Position: 1},
	}
}

func TestPaymentService_Checkout(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       dto.CheckoutRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "opens order for recomputed total",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(stayItems(), nil)
				f.gateway.EXPECT().
					CreateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req payment.OrderRequest) (payment.Order, error) {
						assert.Equal(t, int64(220000), req.AmountMinor)
						assert.Equal(t, bookingID, req.Receipt)
						assert.Equal(t, "INR", req.Currency)

						return payment.Order{ID: orderID, AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created"}, nil
					})
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
						assert.Equal(t, orderID, fields[bookingModel.FieldGatewayOrderID])
						assert.Equal(t, bookingModel.PaymentStatusPending, fields[bookingModel.FieldPaymentStatus])
						assert.NotContains(t, fields, bookingModel.FieldTotalAmount)
						assert.Len(t, filter.Filters, 2)

						return 1, nil
					})
			},
		},
		{
			name: "re-persists drifted total",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				drifted := pendingBooking()
				drifted.TotalAmount = 1

				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(drifted, nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(stayItems(), nil)
				f.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payment.Order{ID: orderID}, nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, 2200.0, fields[bookingModel.FieldTotalAmount])

						return 1, nil
					})
			},
		},
		{
			name:      "invalid booking id",
			req:       dto.CheckoutRequest{BookingID: "nope"},
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "booking not found",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "already paid",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paidBooking(), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "empty items",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]bookingModel.Item{}, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "gateway unavailable",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(stayItems(), nil)
				f.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payment.Order{}, errors.New("timeout"))
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "paid concurrently",
			req:  dto.CheckoutRequest{BookingID: bookingID},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(stayItems(), nil)
				f.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payment.Order{ID: orderID}, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.Checkout(context.Background(), tt.req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, orderID, res.Order.ID)
			assert.Equal(t, 2200.0, res.Amount)
			assert.Equal(t, payment.ProviderRazorpay, res.Provider)
		})
	}
}

func TestPaymentService_ConfirmSuccess(t *testing.T) {
	f := newFixture(t)

	req := dto.SuccessRequest{
		BookingID:         bookingID,
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "5f0e1b",
	}

	tests := []struct {
		name      string
		req       dto.SuccessRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "marks booking paid and sends confirmation",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(orderedBooking(), nil)
				f.gateway.EXPECT().VerifyPayment(gomock.Any(), payment.Confirmation{OrderID: orderID, PaymentID: paymentID, Signature: "5f0e1b"}).Return(nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, bookingModel.PaymentStatusSuccess, fields[bookingModel.FieldPaymentStatus])
						assert.Equal(t, paymentID, fields[bookingModel.FieldGatewayPaymentID])
						assert.Contains(t, fields, bookingModel.FieldPaidAt)

						return 1, nil
					})
				f.notifier.EXPECT().
					SendBookingConfirmation(gomock.Any(), gomock.Any()).
					Do(func(_ context.Context, notice notificationDto.BookingNotice) {
						assert.Equal(t, "guest@resort.test", notice.To)
						assert.Equal(t, "2026-11-01", notice.ServiceDate)
					})
			},
		},
		{
			name: "repeated callback is idempotent",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paidBooking(), nil)
			},
		},
		{
			name: "paid with another payment",
			req: dto.SuccessRequest{
				BookingID:         bookingID,
				RazorpayOrderID:   orderID,
				RazorpayPaymentID: "pay_other",
			},
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paidBooking(), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "order of another booking",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid signature",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(orderedBooking(), nil)
				f.gateway.EXPECT().VerifyPayment(gomock.Any(), gomock.Any()).Return(payment.ErrInvalidSignature)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "provider error",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(orderedBooking(), nil)
				f.gateway.EXPECT().VerifyPayment(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "update error",
			req:  req,
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(orderedBooking(), nil)
				f.gateway.EXPECT().VerifyPayment(gomock.Any(), gomock.Any()).Return(nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database error"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.ConfirmSuccess(context.Background(), tt.req)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bookingModel.PaymentStatusSuccess, res.PaymentStatus)
			assert.Equal(t, paymentID, res.GatewayPaymentID)
			assert.NotEmpty(t, res.PaidAt)
		})
	}
}

func TestPaymentService_RecordFailure(t *testing.T) {
	f := newFixture(t)

	req := dto.FailureRequest{
		BookingID:         bookingID,
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		FailureReason:     "payment_failed",
		ErrorCode:         "BAD_REQUEST_ERROR",
		ErrorDescription:  "Card declined",
	}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "stores failure detail",
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(orderedBooking(), nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, bookingModel.PaymentStatusFailed, fields[bookingModel.FieldPaymentStatus])
						assert.Equal(t, "BAD_REQUEST_ERROR", fields[bookingModel.FieldFailureCode])
						assert.Equal(t, "Card declined", fields[bookingModel.FieldFailureDescription])
						assert.Contains(t, fields, bookingModel.FieldFailedAt)

						return 1, nil
					})
			},
		},
		{
			name: "not found",
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "paid booking is not downgraded",
			setupMock: func() {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paidBooking(), nil)
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.RecordFailure(context.Background(), req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bookingModel.PaymentStatusFailed, res.PaymentStatus)
			assert.Equal(t, "Card declined", res.FailureDescription)
			assert.NotEmpty(t, res.FailedAt)
		})
	}
}
