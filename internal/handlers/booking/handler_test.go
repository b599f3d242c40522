package booking_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/infras/otel/mocks"
	bookingMocks "resort/internal/domains/booking/mocks"
	"resort/internal/domains/booking/model"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/handlers/booking"
	gDto "resort/shared/dto"
	"resort/shared/failure"
)

const (
	bookingID = "0f8e6a52-7c1d-4b9a-a3e2-5d6c7b8a9f01"
	villaID   = "5d3b1c7e-2a4f-4f8e-9b61-0c2d3e4f5a6b"
)

func newRouter(t *testing.T) (http.Handler, *bookingMocks.MockBookingService) {
	ctrl := gomock.NewController(t)
	mockService := bookingMocks.NewMockBookingService(ctrl)

	handler := booking.New(mockService, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	return router, mockService
}

func TestHandler_CreateBooking(t *testing.T) {
	valid := `{"product_type":"stay","service_date":"2026-12-20","check_out":"2026-12-23","owner_name":"Ana",` +
		`"items":[{"catalog_item_id":"` + villaID + `","quantity":1}]}`

	tests := []struct {
		name      string
		body      string
		setupMock func(*bookingMocks.MockBookingService)
		wantCode  int
	}{
		{
			name: "pending booking created",
			body: valid,
			setupMock: func(m *bookingMocks.MockBookingService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error) {
						assert.Equal(t, "stay", req.ProductType)
						assert.Len(t, req.Items, 1)

						return dto.CreateBookingResponse{BookingID: bookingID, TotalAmount: 450, Currency: "INR"}, nil
					})
			},
			wantCode: http.StatusCreated,
		},
		{
			name:      "unknown product type",
			body:      strings.Replace(valid, `"stay"`, `"cruise"`, 1),
			setupMock: func(*bookingMocks.MockBookingService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "no items",
			body:      `{"product_type":"event","service_date":"2026-12-20","owner_name":"Ana","items":[]}`,
			setupMock: func(*bookingMocks.MockBookingService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "catalog item missing",
			body: valid,
			setupMock: func(m *bookingMocks.MockBookingService) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dto.CreateBookingResponse{}, failure.NotFound("catalog item not found"))
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockService := newRouter(t)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/booking/prebooking", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_GetBooking(t *testing.T) {
	router, mockService := newRouter(t)

	mockService.EXPECT().
		Get(gomock.Any(), bookingID).
		Return(dto.BookingResponse{ID: bookingID, ProductType: "stay", PaymentStatus: "pending"}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/booking/prebooking?id="+bookingID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data dto.BookingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, bookingID, body.Data.ID)
	assert.Equal(t, "pending", body.Data.PaymentStatus)
}

func TestHandler_GetBookings(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		setupMock func(*bookingMocks.MockBookingService)
		wantCode  int
	}{
		{
			name:  "filters by status and product type",
			query: "?payment_status=success&product_type=event",
			setupMock: func(m *bookingMocks.MockBookingService) {
				m.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error) {
						require.Len(t, filter.Filters, 2)

						status := filter.Filters[0].(gDto.Filter)
						assert.Equal(t, model.FieldPaymentStatus, status.Field)
						assert.Equal(t, "success", status.Value)

						kind := filter.Filters[1].(gDto.Filter)
						assert.Equal(t, model.FieldProductType, kind.Field)
						assert.Equal(t, "event", kind.Value)

						return dto.GetBookingsResponse{}, nil
					})
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "unknown payment status",
			query:     "?payment_status=refunded",
			setupMock: func(*bookingMocks.MockBookingService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:  "service refuses anonymous callers",
			query: "",
			setupMock: func(m *bookingMocks.MockBookingService) {
				m.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(dto.GetBookingsResponse{}, failure.Unauthorized("sign in to list bookings"))
			},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockService := newRouter(t)
			tt.setupMock(mockService)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/booking"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
