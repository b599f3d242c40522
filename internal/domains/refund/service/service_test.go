package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
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
	catalogModel "resort/internal/domains/catalog/model"
	notificationMocks "resort/internal/domains/notification/mocks"
	"resort/internal/domains/refund/model/dto"
	"resort/internal/domains/refund/service"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/timezone"
)

const (
	ownerID   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	otherID   = "1f0e2d3c-4b5a-4968-8776-655443322110"
	bookingID = "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"
	paymentID = "pay_NkXA8c2Q"
	refundID  = "rfnd_NkXB1e7Z"
)

type refundFixture struct {
	svc      service.Refund
	repo     *bookingMocks.MockBooking
	gateway  *paymentMocks.MockGateway
	notifier *notificationMocks.MockPublisher
}

func newFixture(t *testing.T) refundFixture {
	ctrl := gomock.NewController(t)

	f := refundFixture{
		repo:     bookingMocks.NewMockBooking(ctrl),
		gateway:  paymentMocks.NewMockGateway(ctrl),
		notifier: notificationMocks.NewMockPublisher(ctrl),
	}

	f.notifier.EXPECT().SendRefundRequested(gomock.Any(), gomock.Any()).AnyTimes()
	f.notifier.EXPECT().SendRefundProcessed(gomock.Any(), gomock.Any()).AnyTimes()

	f.svc = service.New(f.repo, f.gateway, f.notifier, &config.Config{}, mocks.NewOtel())

	return f
}

func userContext(userID string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, "guest@resort.test")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleUser)
}

func adminContext() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserEmail, "admin@resort.test")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)
}

func paidStay(daysOut int) bookingModel.Booking {
	return bookingModel.Booking{
		ID:               bookingID,
		UserID:           bookingModel.Ref(ownerID),
		ProductType:      catalogModel.KindStay,
		OwnerName:        "Asha",
		OwnerEmail:       "guest@resort.test",
		TotalAmount:      2200,
		Currency:         "INR",
		ServiceDate:      timezone.Today().AddDate(0, 0, daysOut),
		PaymentStatus:    bookingModel.PaymentStatusSuccess,
		GatewayOrderID:   bookingModel.Ref("order_NkX9v3T1"),
		GatewayPaymentID: bookingModel.Ref(paymentID),
	}
}

func requested(b bookingModel.Booking, pct int, amount float64) bookingModel.Booking {
	b.RefundRequested = true
	b.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusPending)
	b.RefundPercentage = pct
	b.RefundAmount = amount

	return b
}

func TestRefundService_Request(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		ctx       context.Context
		booking   bookingModel.Booking
		setupMock func(booking bookingModel.Booking)
		wantPct   int
		wantCode  int
	}{
		{
			name:    "ten days out gives full refund",
			ctx:     userContext(ownerID),
			booking: paidStay(10),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
						assert.Equal(t, true, fields[bookingModel.FieldRefundRequested])
						assert.Equal(t, false, fields[bookingModel.FieldRefundApproved])
						assert.Equal(t, bookingModel.RefundStatusPending, fields[bookingModel.FieldRefundStatus])
						assert.Equal(t, 100, fields[bookingModel.FieldRefundPercentage])
						assert.Equal(t, 2200.0, fields[bookingModel.FieldRefundAmount])
						assert.Len(t, filter.Filters, 3)

						return 1, nil
					})
			},
			wantPct: 100,
		},
		{
			name:    "six days out",
			ctx:     userContext(ownerID),
			booking: paidStay(6),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			},
			wantPct: 75,
		},
		{
			name:    "three days out records zero",
			ctx:     userContext(ownerID),
			booking: paidStay(3),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			},
			wantPct: 0,
		},
		{
			name:    "rejected request can be made again",
			ctx:     userContext(ownerID),
			booking: func() bookingModel.Booking {
				b := requested(paidStay(5), 50, 1100)
				b.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusRejected)

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			},
			wantPct: 50,
		},
		{
			name:    "not the owner",
			ctx:     userContext(otherID),
			booking: paidStay(10),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "adventure is not refundable",
			ctx:  userContext(ownerID),
			booking: func() bookingModel.Booking {
				b := paidStay(10)
				b.ProductType = catalogModel.KindAdventure

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unpaid booking",
			ctx:  userContext(ownerID),
			booking: func() bookingModel.Booking {
				b := paidStay(10)
				b.PaymentStatus = bookingModel.PaymentStatusPending

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "already processed",
			ctx:  userContext(ownerID),
			booking: func() bookingModel.Booking {
				b := requested(paidStay(10), 100, 2200)
				b.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusProcessed)

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "approved concurrently",
			ctx:     userContext(ownerID),
			booking: requested(paidStay(10), 100, 2200),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "not found",
			ctx:     userContext(ownerID),
			booking: bookingModel.Booking{},
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock(tt.booking)

			res, err := f.svc.Request(tt.ctx, dto.RequestRefundRequest{BookingID: bookingID, Reason: "change of plans"})
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.True(t, res.Requested)
			assert.False(t, res.Approved)
			assert.Equal(t, bookingModel.RefundStatusPending, res.Status)
			assert.Equal(t, tt.wantPct, res.Percentage)
			assert.Equal(t, "change of plans", res.Reason)
			assert.NotEmpty(t, res.RequestedAt)
		})
	}
}

func TestRefundService_Approve(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		booking   bookingModel.Booking
		setupMock func(booking bookingModel.Booking)
		wantCode  int
	}{
		{
			name:    "executes gateway refund",
			booking: requested(paidStay(8), 100, 2200),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, bookingModel.RefundStatusApproved, fields[bookingModel.FieldRefundStatus])
						assert.Equal(t, true, fields[bookingModel.FieldRefundApproved])

						return 1, nil
					})
				f.gateway.EXPECT().
					Refund(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req payment.RefundRequest) (payment.Refund, error) {
						assert.Equal(t, paymentID, req.PaymentID)
						assert.Equal(t, int64(220000), req.AmountMinor)

						return payment.Refund{ID: refundID, AmountMinor: req.AmountMinor, Status: "processed"}, nil
					})
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, bookingModel.RefundStatusProcessed, fields[bookingModel.FieldRefundStatus])
						assert.Equal(t, refundID, fields[bookingModel.FieldGatewayRefundID])

						return nil
					})
			},
		},
		{
			name:    "no refund requested",
			booking: paidStay(8),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "already processed",
			booking: func() bookingModel.Booking {
				b := requested(paidStay(8), 100, 2200)
				b.RefundStatus = bookingModel.Ref(bookingModel.RefundStatusProcessed)

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "no payment id",
			booking: func() bookingModel.Booking {
				b := requested(paidStay(8), 100, 2200)
				b.GatewayPaymentID = nil

				return b
			}(),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "nothing due",
			booking: requested(paidStay(2), 0, 0),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "claim lost to another approval",
			booking: requested(paidStay(8), 100, 2200),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "gateway failure releases the claim",
			booking: requested(paidStay(8), 100, 2200),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				f.gateway.EXPECT().Refund(gomock.Any(), gomock.Any()).Return(payment.Refund{}, errors.New("gateway down"))
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, bookingModel.RefundStatusPending, fields[bookingModel.FieldRefundStatus])
						assert.Equal(t, false, fields[bookingModel.FieldRefundApproved])

						return nil
					})
			},
			wantCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock(tt.booking)

			res, err := f.svc.Approve(adminContext(), dto.ApproveRefundRequest{BookingID: bookingID})
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bookingModel.RefundStatusProcessed, res.Status)
			assert.Equal(t, refundID, res.GatewayRefundID)
			assert.True(t, res.Approved)
			assert.NotEmpty(t, res.ProcessedAt)
		})
	}
}

func TestRefundService_ApproveConcurrently(t *testing.T) {
	f := newFixture(t)

	booking := requested(paidStay(8), 100, 2200)

	var (
		mu      sync.Mutex
		claimed bool
	)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil).Times(2)
	f.repo.EXPECT().
		UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ map[string]any, _ gDto.FilterGroup) (int64, error) {
			mu.Lock()
			defer mu.Unlock()

			if claimed {
				return 0, nil
			}

			claimed = true

			return 1, nil
		}).
		Times(2)
	f.gateway.EXPECT().Refund(gomock.Any(), gomock.Any()).Return(payment.Refund{ID: refundID}, nil).Times(1)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup

	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, errs[i] = f.svc.Approve(adminContext(), dto.ApproveRefundRequest{BookingID: bookingID})
		}(i)
	}

	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++

			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		}
	}

	assert.Equal(t, 1, failed)
}

func TestRefundService_Reject(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		booking   bookingModel.Booking
		setupMock func(booking bookingModel.Booking)
		wantCode  int
	}{
		{
			name:    "rejects pending refund",
			booking: requested(paidStay(8), 100, 2200),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				f.repo.EXPECT().
					UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, bookingModel.RefundStatusRejected, fields[bookingModel.FieldRefundStatus])
						assert.Equal(t, "outside policy", fields[bookingModel.FieldRefundRejectionReason])

						return 1, nil
					})
			},
		},
		{
			name:    "nothing pending",
			booking: paidStay(8),
			setupMock: func(booking bookingModel.Booking) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock(tt.booking)

			res, err := f.svc.Reject(adminContext(), dto.RejectRefundRequest{BookingID: bookingID, Reason: "outside policy"})

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bookingModel.RefundStatusRejected, res.Status)
			assert.Equal(t, "outside policy", res.RejectionReason)
		})
	}
}

func TestRefundService_GetAll(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]bookingModel.Booking, error) {
			assert.Equal(t, gDto.FilterGroupOperatorAnd, filter.Operator)
			assert.Len(t, filter.Filters, 2)

			return []bookingModel.Booking{requested(paidStay(8), 100, 2200)}, nil
		})

	res, err := f.svc.GetAll(adminContext(), gDto.QueryParams{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
	require.Len(t, res.Bookings, 1)
	require.NotNil(t, res.Bookings[0].Refund)
	assert.Equal(t, 2200.0, res.Bookings[0].Refund.Amount)
}

// TestRefundFlow_Stay walks a paid two night stay through request and approval.
func TestRefundFlow_Stay(t *testing.T) {
	f := newFixture(t)

	booking := paidStay(8)
	var stored bookingModel.Booking

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
	f.repo.EXPECT().
		UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			stored = requested(booking, fields[bookingModel.FieldRefundPercentage].(int), fields[bookingModel.FieldRefundAmount].(float64))

			return 1, nil
		})

	requestedRes, err := f.svc.Request(userContext(ownerID), dto.RequestRefundRequest{BookingID: bookingID})
	require.NoError(t, err)
	assert.Equal(t, 100, requestedRes.Percentage)
	assert.Equal(t, 2200.0, requestedRes.Amount)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, gDto.FilterGroup, ...string) (bookingModel.Booking, error) {
		return stored, nil
	})
	f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
	f.gateway.EXPECT().Refund(gomock.Any(), payment.RefundRequest{
		PaymentID:   paymentID,
		AmountMinor: 220000,
		Notes:       map[string]string{"booking_id": bookingID},
	}).Return(payment.Refund{ID: refundID, AmountMinor: 220000}, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	approvedRes, err := f.svc.Approve(adminContext(), dto.ApproveRefundRequest{BookingID: bookingID})
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, bookingModel.RefundStatusProcessed, approvedRes.Status)
	assert.Equal(t, 2200.0, approvedRes.Amount)
}
