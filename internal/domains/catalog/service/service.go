package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"path"
	"resort/config"
	"resort/infras/otel"
	"resort/infras/s3"
	"resort/internal/domains/catalog/model"
	"resort/internal/domains/catalog/model/dto"
	"resort/internal/domains/catalog/repository"
	"resort/shared"
	"resort/shared/cache"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/timezone"
	"resort/shared/validator"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetItem    = "catalog:get"
	cacheGetAllItem = "catalog:get_all"
	cacheCountItem  = "catalog:count"
	cacheGetAddons  = "catalog:addons"

	// fields written by every update besides the requested ones
	auditFieldCount = 2
)

var (
	ErrDeleteImagesFromS3 = errors.New("failed to delete images from S3")
)

type Catalog interface {
	Create(ctx context.Context, req dto.CreateItemRequest) (dto.CreateItemResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetItemsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.ItemResponse, error)
	Update(ctx context.Context, req dto.UpdateItemRequest, id string) error
	Delete(ctx context.Context, id string) error
	CreateAddon(ctx context.Context, req dto.CreateAddonRequest, itemID string) (dto.AddonResponse, error)
	GetAddons(ctx context.Context, itemID string) ([]dto.AddonResponse, error)
	DeleteAddon(ctx context.Context, addonID string) error
	UploadImage(ctx context.Context, req dto.UploadImageRequest) (dto.UploadImageResponse, error)
	DeleteImagesFromS3(ctx context.Context, req dto.DeleteImagesRequest) error
}

type serviceImpl struct {
	itemRepo  repository.Item
	addonRepo repository.Addon
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
	s3        s3.S3
}

func New(itemRepo repository.Item, addonRepo repository.Addon, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Catalog {
	return &serviceImpl{
		itemRepo:  itemRepo,
		addonRepo: addonRepo,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
		s3:        s3,
	}
}

func parseEventDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	date, err := timezone.Parse(constant.DateOnlyFormat, value)
	if err != nil {
		return nil, failure.BadRequestFromString("event_date must be a valid YYYY-MM-DD date")
	}

	return &date, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateItemRequest) (res dto.CreateItemResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if req.Kind == model.KindEvent && req.EventDate == "" {
		return res, failure.BadRequestFromString("event_date is required for events")
	}

	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return res, err
	}

	item := req.ToModel(shared.Actor(ctx), eventDate)

	if err = s.itemRepo.Insert(ctx, item); err != nil {
		log.Error().Err(err).Msg("failed to create catalog item")

		return res, fmt.Errorf("failed to create catalog item: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllItem)
		shared.InvalidateCaches(c, s.cache, cacheCountItem)
	}()

	res.ID = item.ID

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetItemsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(&err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllItem, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for catalog items")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count catalog items")

		return res, err
	}

	items, err := s.itemRepo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog items")

		return res, fmt.Errorf("failed to get catalog items: %w", err)
	}

	res.FromModels(items, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save catalog items to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (total int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(&err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountItem, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for catalog count")

		return total, nil
	}

	total, err = s.itemRepo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count catalog items")

		return total, fmt.Errorf("failed to count catalog items: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save catalog count to cache")
		}
	}()

	return total, nil
}

// Get returns the item with its add-ons. Only stays carry add-ons.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ItemResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(id); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetItem, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for catalog item")

		return res, nil
	}

	item, err := s.itemRepo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog item")

		return res, fmt.Errorf("failed to get catalog item: %w", err)
	}

	if item.ID == constant.Empty {
		return res, failure.NotFound("catalog item not found")
	}

	res.FromModel(item)

	if item.Kind == model.KindStay {
		addons, err := s.addonRepo.GetAll(ctx, addonOrder, addonsOf(item.ID))
		if err != nil {
			log.Error().Err(err).Msg("failed to get catalog addons")

			return res, fmt.Errorf("failed to get catalog addons: %w", err)
		}

		res.Addons = dto.AddonsFromModels(addons)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save catalog item to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateItemRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(id); err != nil {
		return err
	}

	updatedFields := shared.TransformFields(req, shared.Actor(ctx))

	if req.EventDate != nil {
		eventDate, err := parseEventDate(*req.EventDate)
		if err != nil {
			return err
		}

		updatedFields[model.FieldEventDate] = eventDate
	}

	if len(updatedFields) == auditFieldCount {
		return failure.BadRequestFromString("no fields to update")
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.itemRepo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check catalog item existence")

		return fmt.Errorf("failed to check catalog item existence: %w", err)
	}

	if !exist {
		return failure.NotFound("catalog item not found")
	}

	if err = s.itemRepo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update catalog item")

		return fmt.Errorf("failed to update catalog item: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetItem, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete catalog item cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllItem)
		shared.InvalidateCaches(c, s.cache, cacheCountItem)
	}()

	return nil
}

// Delete removes the item and its add-ons. Stored images are removed afterwards in the background.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(id); err != nil {
		return err
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	item, err := s.itemRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog item for deletion")

		return fmt.Errorf("failed to get catalog item: %w", err)
	}

	if item.ID == constant.Empty {
		return failure.NotFound("catalog item not found")
	}

	if err = s.itemRepo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete catalog item")

		return fmt.Errorf("failed to delete catalog item: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetItem, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete catalog item cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetAddons, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete catalog addons cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllItem)
		shared.InvalidateCaches(c, s.cache, cacheCountItem)

		if len(item.Images) > 0 {
			deleteReq := dto.DeleteImagesRequest{ImageURLs: item.Images}

			if err := s.DeleteImagesFromS3(c, deleteReq); err != nil {
				log.Error().Err(err).Str("item_id", id).Msg("failed to delete item images")
			}
		}
	}()

	return nil
}

func (s *serviceImpl) CreateAddon(ctx context.Context, req dto.CreateAddonRequest, itemID string) (res dto.AddonResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateAddon")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(itemID); err != nil {
		return res, err
	}

	item, err := s.itemRepo.Get(ctx, shared.FilterByID(itemID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog item")

		return res, fmt.Errorf("failed to get catalog item: %w", err)
	}

	if item.ID == constant.Empty {
		return res, failure.NotFound("catalog item not found")
	}

	if item.Kind != model.KindStay {
		return res, failure.InvalidState("add-ons are only available for stays")
	}

	addon := req.ToModel(itemID, shared.Actor(ctx))

	if err = s.addonRepo.Insert(ctx, addon); err != nil {
		log.Error().Err(err).Msg("failed to create catalog addon")

		return res, fmt.Errorf("failed to create catalog addon: %w", err)
	}

	s.invalidateAddons(ctx, itemID)

	res.FromModel(addon)

	return res, nil
}

func (s *serviceImpl) GetAddons(ctx context.Context, itemID string) (res []dto.AddonResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAddons")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(itemID); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetAddons, itemID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for catalog addons")

		return res, nil
	}

	addons, err := s.addonRepo.GetAll(ctx, addonOrder, addonsOf(itemID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog addons")

		return res, fmt.Errorf("failed to get catalog addons: %w", err)
	}

	res = dto.AddonsFromModels(addons)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save catalog addons to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) DeleteAddon(ctx context.Context, addonID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteAddon")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validateID(addonID); err != nil {
		return err
	}

	filter := shared.FilterByID(addonID, model.FieldID, model.AddonTableName)

	addon, err := s.addonRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get catalog addon")

		return fmt.Errorf("failed to get catalog addon: %w", err)
	}

	if addon.ID == constant.Empty {
		return failure.NotFound("catalog addon not found")
	}

	if err = s.addonRepo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete catalog addon")

		return fmt.Errorf("failed to delete catalog addon: %w", err)
	}

	s.invalidateAddons(ctx, addon.ItemID)

	return nil
}

func (s *serviceImpl) UploadImage(ctx context.Context, req dto.UploadImageRequest) (res dto.UploadImageResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadImage")
	defer scope.End()
	defer scope.TraceIfError(&err)

	object := s3.Object{
		Key:         path.Join(model.EntityName, req.Kind, req.Image.Filename),
		ContentType: req.Image.Header.Get(constant.RequestHeaderContentType),
		Body:        req.ImageFile,
		Size:        req.Image.Size,
	}

	url, err := s.s3.Put(ctx, object)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload catalog image")

		return res, fmt.Errorf("failed to upload catalog image: %w", err)
	}

	res.FromModel(url, req.Image.Filename)

	return res, nil
}

// DeleteImagesFromS3 removes every image it can resolve to an object key.
// URLs outside the bucket are skipped.
func (s *serviceImpl) DeleteImagesFromS3(ctx context.Context, req dto.DeleteImagesRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteImagesFromS3")
	defer scope.End()
	defer scope.TraceIfError(&err)

	keys := make([]string, 0, len(req.ImageURLs))

	for _, imageURL := range req.ImageURLs {
		key := s.s3.KeyOf(imageURL)
		if key == constant.Empty {
			log.Warn().Str("url", imageURL).Msg("image url is not in the catalog bucket")

			continue
		}

		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil
	}

	if err = s.s3.Remove(ctx, keys...); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("failed to delete catalog images")

		return fmt.Errorf("%w: %w", ErrDeleteImagesFromS3, err)
	}

	return nil
}

func (s *serviceImpl) invalidateAddons(ctx context.Context, itemID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetAddons, itemID)); err != nil {
			log.Error().Err(err).Msg("failed to delete catalog addons cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetItem, itemID)); err != nil {
			log.Error().Err(err).Msg("failed to delete catalog item cache")
		}
	}()
}

func validateID(id string) error {
	return validator.ValidateVar(id, "required,uuid")
}

var addonOrder = gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirAsc}

func addonsOf(itemID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldAddonItemID,
				Operator: gDto.FilterOperatorEq,
				Value:    itemID,
				Table:    model.AddonTableName,
			},
		},
	}
}
