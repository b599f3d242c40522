package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/kafka"
	kafkaMocks "resort/infras/kafka/mocks"
	"resort/infras/otel/mocks"
	"resort/internal/domains/notification/model"
	"resort/internal/domains/notification/model/dto"
	"resort/internal/domains/notification/service"
)

func TestPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Kafka.NotificationTopic = "resort.notifications"

	publisher := service.NewPublisher(mockClient, cfg, mocks.NewOtel())

	expectEvent := func(wantType, wantTo string, check func(event model.Event)) {
		mockClient.EXPECT().
			Publish(gomock.Any(), "resort.notifications", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
				assert.Len(t, messages, 1)
				assert.Equal(t, wantTo, messages[0].Key)

				event, ok := messages[0].Value.(model.Event)
				assert.True(t, ok)
				assert.Equal(t, wantType, event.Type)
				assert.Equal(t, wantTo, event.To)

				check(event)

				return nil
			})
	}

	t.Run("otp", func(t *testing.T) {
		expectEvent(model.TypeOTP, "guest@resort.test", func(event model.Event) {
			assert.Equal(t, "123456", event.Data[model.DataCode])
			assert.Equal(t, 5, event.Data[model.DataTTLMinutes])
		})

		publisher.SendOTP(context.Background(), "guest@resort.test", "123456", 5)
	})

	t.Run("booking confirmation", func(t *testing.T) {
		expectEvent(model.TypeBookingConfirmation, "guest@resort.test", func(event model.Event) {
			assert.Equal(t, "2200.00", event.Data[model.DataAmount])
			assert.Equal(t, "stay", event.Data[model.DataProductType])
		})

		publisher.SendBookingConfirmation(context.Background(), dto.BookingNotice{
			BookingID:   "booking-1",
			To:          "guest@resort.test",
			ProductType: "stay",
			Amount:      2200,
			Currency:    "INR",
		})
	})

	t.Run("refund processed", func(t *testing.T) {
		expectEvent(model.TypeRefundProcessed, "guest@resort.test", func(event model.Event) {
			assert.Equal(t, "Your refund has been processed", event.Subject)
			assert.Equal(t, 100, event.Data[model.DataPercentage])
		})

		publisher.SendRefundProcessed(context.Background(), dto.RefundNotice{
			BookingID:  "booking-1",
			To:         "guest@resort.test",
			Percentage: 100,
			Amount:     2200,
		})
	})

	t.Run("kafka error is swallowed", func(t *testing.T) {
		mockClient.EXPECT().
			Publish(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("broker down"))

		assert.NotPanics(t, func() {
			publisher.SendRefundRequested(context.Background(), dto.RefundNotice{To: "guest@resort.test"})
		})
	})

	t.Run("missing recipient is skipped", func(t *testing.T) {
		publisher.SendOTP(context.Background(), "", "123456", 5)
	})
}
