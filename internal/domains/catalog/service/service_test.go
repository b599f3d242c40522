package service_test

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/otel/mocks"
	"resort/infras/s3"
	s3Mocks "resort/infras/s3/mocks"
	catalogMocks "resort/internal/domains/catalog/mocks"
	"resort/internal/domains/catalog/model"
	"resort/internal/domains/catalog/model/dto"
	"resort/internal/domains/catalog/service"
	cacheMocks "resort/shared/cache/mocks"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
)

const (
	itemID  = "3f2b8c1e-9a4d-4e5f-8b6a-7c8d9e0f1a2b"
	addonID = "5a6b7c8d-1e2f-4a3b-9c4d-5e6f7a8b9c0d"
)

type catalogFixture struct {
	svc       service.Catalog
	itemRepo  *catalogMocks.MockItem
	addonRepo *catalogMocks.MockAddon
	cache     *cacheMocks.MockRedisCache
	s3        *s3Mocks.MockS3
}

func adminContext() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserEmail, "admin@resort.test")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)
}

func newFixture(t *testing.T) catalogFixture {
	ctrl := gomock.NewController(t)

	f := catalogFixture{
		itemRepo:  catalogMocks.NewMockItem(ctrl),
		addonRepo: catalogMocks.NewMockAddon(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		s3:        s3Mocks.NewMockS3(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.External.S3.BucketName = "resort"

	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(f.itemRepo, f.addonRepo, cfg, f.cache, mocks.NewOtel(), f.s3)

	return f
}

func TestCatalogService_Create(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       dto.CreateItemRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "creates stay",
			req: dto.CreateItemRequest{
				Kind:     model.KindStay,
				Name:     "Lake View Cottage",
				Price:    1000,
				Capacity: 2,
			},
			setupMock: func() {
				f.itemRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item model.Item) error {
						assert.Equal(t, model.KindStay, item.Kind)
						assert.True(t, item.Active)
						assert.Nil(t, item.EventDate)
						assert.Equal(t, "admin@resort.test", item.CreatedBy)

						return nil
					})
			},
		},
		{
			name: "creates event with date",
			req: dto.CreateItemRequest{
				Kind:      model.KindEvent,
				Name:      "New Year Gala",
				Price:     500,
				EventDate: "2030-12-31",
			},
			setupMock: func() {
				f.itemRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item model.Item) error {
						require.NotNil(t, item.EventDate)
						assert.Equal(t, "2030-12-31", item.EventDate.Format(constant.DateOnlyFormat))

						return nil
					})
			},
		},
		{
			name: "event without date",
			req: dto.CreateItemRequest{
				Kind:  model.KindEvent,
				Name:  "New Year Gala",
				Price: 500,
			},
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "repository error",
			req: dto.CreateItemRequest{
				Kind:  model.KindAdventure,
				Name:  "River Rafting",
				Price: 750,
			},
			setupMock: func() {
				f.itemRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.Create(adminContext(), tt.req)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ID)
		})
	}
}

func TestCatalogService_GetAll(t *testing.T) {
	f := newFixture(t)

	items := []model.Item{
		{ID: itemID, Kind: model.KindStay, Name: "Lake View Cottage", Price: 1000, Active: true},
	}

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
	}{
		{
			name: "loads from repository on cache miss",
			setupMock: func() {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).Times(2)
				f.itemRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
				f.itemRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(items, nil)
			},
		},
		{
			name: "count error",
			setupMock: func() {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).Times(2)
				f.itemRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})
			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, 1, res.TotalData)
			assert.Equal(t, 1, res.TotalPage)
			assert.Len(t, res.Items, 1)
		})
	}
}

func TestCatalogService_Get(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		id         string
		setupMock  func()
		wantCode   int
		wantAddons int
	}{
		{
			name: "stay includes addons",
			id:   itemID,
			setupMock: func() {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{ID: itemID, Kind: model.KindStay}, nil)
				f.addonRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Addon{
					{ID: addonID, ItemID: itemID, Name: "Breakfast", Price: 200, Active: true},
				}, nil)
			},
			wantAddons: 1,
		},
		{
			name: "adventure skips addons",
			id:   itemID,
			setupMock: func() {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{ID: itemID, Kind: model.KindAdventure}, nil)
			},
		},
		{
			name:      "invalid id",
			id:        "room-1",
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "not found",
			id:   itemID,
			setupMock: func() {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.Get(context.Background(), tt.id)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, itemID, res.ID)
			assert.Len(t, res.Addons, tt.wantAddons)
		})
	}
}

func TestCatalogService_Update(t *testing.T) {
	f := newFixture(t)

	price := 1200.0
	eventDate := "2031-01-15"

	tests := []struct {
		name      string
		req       dto.UpdateItemRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "updates price",
			req:  dto.UpdateItemRequest{Price: &price},
			setupMock: func() {
				f.itemRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.itemRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, &price, fields[model.FieldPrice])

						return nil
					})
			},
		},
		{
			name: "updates event date",
			req:  dto.UpdateItemRequest{EventDate: &eventDate},
			setupMock: func() {
				f.itemRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.itemRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Contains(t, fields, model.FieldEventDate)

						return nil
					})
			},
		},
		{
			name:      "empty request",
			req:       dto.UpdateItemRequest{},
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "not found",
			req:  dto.UpdateItemRequest{Price: &price},
			setupMock: func() {
				f.itemRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := f.svc.Update(adminContext(), tt.req, itemID)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCatalogService_Delete(t *testing.T) {
	f := newFixture(t)

	imageURL := "https://cdn.resort.test/catalog/stay/cottage.jpg"

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "deletes item and its images",
			setupMock: func() {
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{ID: itemID, Images: []string{imageURL}}, nil)
				f.itemRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				f.s3.EXPECT().KeyOf(imageURL).Return("catalog/stay/cottage.jpg")
				f.s3.EXPECT().Remove(gomock.Any(), "catalog/stay/cottage.jpg").Return(nil)
			},
		},
		{
			name: "not found",
			setupMock: func() {
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := f.svc.Delete(adminContext(), itemID)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCatalogService_CreateAddon(t *testing.T) {
	f := newFixture(t)

	req := dto.CreateAddonRequest{Name: "Breakfast", Price: 200}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "adds to stay",
			setupMock: func() {
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{ID: itemID, Kind: model.KindStay}, nil)
				f.addonRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, addon model.Addon) error {
						assert.Equal(t, itemID, addon.ItemID)
						assert.True(t, addon.Active)

						return nil
					})
			},
		},
		{
			name: "rejects event",
			setupMock: func() {
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{ID: itemID, Kind: model.KindEvent}, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "item not found",
			setupMock: func() {
				f.itemRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.CreateAddon(adminContext(), req, itemID)
			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "Breakfast", res.Name)
		})
	}
}

func TestCatalogService_DeleteAddon(t *testing.T) {
	f := newFixture(t)

	f.addonRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Addon{ID: addonID, ItemID: itemID}, nil)
	f.addonRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	err := f.svc.DeleteAddon(adminContext(), addonID)
	time.Sleep(10 * time.Millisecond)

	assert.NoError(t, err)

	f.addonRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Addon{}, nil)

	err = f.svc.DeleteAddon(adminContext(), addonID)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestCatalogService_UploadImage(t *testing.T) {
	f := newFixture(t)

	header := &multipart.FileHeader{
		Filename: "cottage.jpg",
		Header:   textproto.MIMEHeader{"Content-Type": {"image/jpeg"}},
		Size:     2048,
	}

	f.s3.EXPECT().
		Put(gomock.Any(), s3.Object{Key: "catalog/stay/cottage.jpg", ContentType: "image/jpeg", Size: 2048}).
		Return("https://cdn.resort.test/catalog/stay/cottage.jpg", nil)

	res, err := f.svc.UploadImage(adminContext(), dto.UploadImageRequest{Image: header, Kind: model.KindStay})

	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.resort.test/catalog/stay/cottage.jpg", res.URL)
	assert.Equal(t, "cottage.jpg", res.FileName)
}

func TestCatalogService_DeleteImagesFromS3(t *testing.T) {
	f := newFixture(t)

	urls := []string{"https://cdn.resort.test/a.jpg", "https://elsewhere.test/b.jpg", "https://cdn.resort.test/c.jpg"}

	f.s3.EXPECT().KeyOf(urls[0]).Return("a.jpg")
	f.s3.EXPECT().KeyOf(urls[1]).Return(constant.Empty)
	f.s3.EXPECT().KeyOf(urls[2]).Return("c.jpg")
	f.s3.EXPECT().Remove(gomock.Any(), "a.jpg", "c.jpg").Return(fmt.Errorf("%w: 1 of 2", s3.ErrPartialDelete))

	err := f.svc.DeleteImagesFromS3(adminContext(), dto.DeleteImagesRequest{ImageURLs: urls})

	assert.ErrorIs(t, err, service.ErrDeleteImagesFromS3)
	assert.ErrorIs(t, err, s3.ErrPartialDelete)
}

func TestCatalogService_DeleteImagesFromS3_NothingResolved(t *testing.T) {
	f := newFixture(t)

	f.s3.EXPECT().KeyOf("https://elsewhere.test/b.jpg").Return(constant.Empty)

	err := f.svc.DeleteImagesFromS3(adminContext(), dto.DeleteImagesRequest{ImageURLs: []string{"https://elsewhere.test/b.jpg"}})

	assert.NoError(t, err)
}
