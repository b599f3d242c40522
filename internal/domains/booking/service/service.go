//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

package service

import (
	"context"
	"fmt"
	"resort/config"
	"resort/infras/otel"
	"resort/internal/domains/booking/model"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/domains/booking/repository"
	catalogModel "resort/internal/domains/catalog/model"
	catalogRepo "resort/internal/domains/catalog/repository"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	gModel "resort/shared/model"
	"resort/shared/money"
	"resort/shared/timezone"
	"resort/shared/validator"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	defaultCurrency = "INR"
	hoursPerDay     = 24
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
}

type serviceImpl struct {
	repo      repository.Booking
	itemRepo  repository.Item
	catalog   catalogRepo.Item
	addonRepo catalogRepo.Addon
	cfg       *config.Config
	otel      otel.Otel
}

func New(repo repository.Booking, itemRepo repository.Item, catalog catalogRepo.Item, addonRepo catalogRepo.Addon, cfg *config.Config, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:      repo,
		itemRepo:  itemRepo,
		catalog:   catalog,
		addonRepo: addonRepo,
		cfg:       cfg,
		otel:      otel,
	}
}

// stayDates holds the parsed service window. Nights is zero for products not priced per night.
type stayDates struct {
	serviceDate time.Time
	endDate     *time.Time
	nights      int
}

// Create prices the requested items from the catalog and writes the booking
// with its line items in one transaction.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.CreateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(&err)

	product, ok := model.Product(req.ProductType)
	if !ok {
		return res, failure.BadRequestFromString("unknown product type")
	}

	dates, err := parseDates(product, req)
	if err != nil {
		return res, err
	}

	if err = checkClientFigures(product, dates, req.Items); err != nil {
		return res, err
	}

	ownerEmail := req.OwnerEmail
	if ownerEmail == "" {
		ownerEmail, _ = ctx.Value(constant.ContextKeyUserEmail).(string)
	}

	if ownerEmail == "" {
		return res, failure.BadRequestFromString("owner_email is required")
	}

	catalogItems, err := s.loadCatalogItems(ctx, req.Items)
	if err != nil {
		return res, err
	}

	addons, err := s.loadAddons(ctx, req.Items)
	if err != nil {
		return res, err
	}

	bookingID := uuid.NewString()
	actor := shared.Actor(ctx)
	now := timezone.Now()

	items := []model.Item{}
	total := 0.0

	for _, reqItem := range req.Items {
		catalogItem, found := catalogItems[reqItem.CatalogItemID]
		if !found {
			return res, failure.NotFound(fmt.Sprintf("catalog item %s not found", reqItem.CatalogItemID))
		}

		if catalogItem.Kind != product.Kind {
			return res, failure.BadRequestFromString(fmt.Sprintf("catalog item %s is not a %s", catalogItem.ID, product.Kind))
		}

		if catalogItem.EventDate != nil && !timezone.CalendarDate(*catalogItem.EventDate).Equal(timezone.CalendarDate(dates.serviceDate)) {
			return res, failure.BadRequestFromString("service_date must match the event date")
		}

		line := model.Item{
			ID:            uuid.NewString(),
			BookingID:     bookingID,
			CatalogItemID: catalogItem.ID,
			Kind:          model.ItemKindItem,
			Name:          catalogItem.Name,
			UnitPrice:     catalogItem.Price,
			Quantity:      reqItem.Quantity,
			Nights:        dates.nights,
			Subtotal:      money.Round2(catalogItem.Price * float64(reqItem.Quantity) * float64(multiplier(dates))),
			Position:      len(items),
			Metadata:      gModel.NewMetadata(now, actor),
		}

		items = append(items, line)
		total += line.Subtotal

		for _, reqAddon := range reqItem.Addons {
			addon, found := addons[reqAddon.AddonID]
			if !found || addon.ItemID != catalogItem.ID {
				return res, failure.NotFound(fmt.Sprintf("add-on %s not found for catalog item %s", reqAddon.AddonID, catalogItem.ID))
			}

			addonLine := model.Item{
				ID:            uuid.NewString(),
				BookingID:     bookingID,
				CatalogItemID: addon.ID,
				Kind:          model.ItemKindAddon,
				Name:          addon.Name,
				UnitPrice:     addon.Price,
				Quantity:      reqAddon.Quantity,
				Subtotal:      money.Round2(addon.Price * float64(reqAddon.Quantity)),
				Position:      len(items),
				Metadata:      gModel.NewMetadata(now, actor),
			}

			items = append(items, addonLine)
			total += addonLine.Subtotal
		}
	}

	total = money.Round2(total)

	if req.TotalAmount != nil && !money.Equal(*req.TotalAmount, total) {
		log.Warn().Float64("client_total", *req.TotalAmount).Float64("total", total).Msg("client total differs from catalog total")
	}

	currency := s.cfg.App.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	booking := model.Booking{
		ID:            bookingID,
		ProductType:   product.Kind,
		OwnerName:     req.OwnerName,
		OwnerEmail:    ownerEmail,
		OwnerPhone:    req.OwnerPhone,
		TotalAmount:   total,
		Currency:      currency,
		ServiceDate:   dates.serviceDate,
		EndDate:       dates.endDate,
		PaymentStatus: model.PaymentStatusPending,
		Metadata:      gModel.NewMetadata(now, actor),
	}

	if userID := shared.UserID(ctx); userID != "" {
		booking.UserID = model.Ref(userID)
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		if err := s.itemRepo.InsertBulkTx(ctx, tx, items); err != nil {
			return fmt.Errorf("failed to insert booking items: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	scope.SetAttribute(constant.OtelBookingIDAttribute, bookingID)

	return dto.CreateBookingResponse{
		BookingID:   bookingID,
		TotalAmount: total,
		Currency:    currency,
	}, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateVar(id, "required,uuid"); err != nil {
		return res, err
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found")
	}

	items, err := s.itemRepo.GetAll(ctx, repository.ItemOrder, repository.ItemsOf(id))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking items")

		return res, fmt.Errorf("failed to get booking items: %w", err)
	}

	res.FromModel(booking)
	res.WithItems(items)

	return res, nil
}

// GetAll lists bookings. Guests only ever see their own, staff see everything.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if !shared.IsStaff(ctx) {
		userID := shared.UserID(ctx)
		if userID == "" {
			return res, failure.Unauthorized("authentication required")
		}

		filter = gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters: []any{
				gDto.Filter{
					Field:    model.FieldUserID,
					Operator: gDto.FilterOperatorEq,
					Value:    userID,
					Table:    model.TableName,
					ArgName:  "owner_id",
				},
				filter,
			},
		}
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, req.Limit)

	return res, nil
}

func (s *serviceImpl) loadCatalogItems(ctx context.Context, reqItems []dto.ItemRequest) (map[string]catalogModel.Item, error) {
	ids := []string{}
	for _, item := range reqItems {
		if !slices.Contains(ids, item.CatalogItemID) {
			ids = append(ids, item.CatalogItemID)
		}
	}

	items, err := s.catalog.GetAll(ctx, gDto.QueryParams{}, activeByIDs(ids, catalogModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog items")

		return nil, fmt.Errorf("failed to load catalog items: %w", err)
	}

	res := make(map[string]catalogModel.Item, len(items))
	for _, item := range items {
		res[item.ID] = item
	}

	return res, nil
}

func (s *serviceImpl) loadAddons(ctx context.Context, reqItems []dto.ItemRequest) (map[string]catalogModel.Addon, error) {
	ids := []string{}
	for _, item := range reqItems {
		for _, addon := range item.Addons {
			if !slices.Contains(ids, addon.AddonID) {
				ids = append(ids, addon.AddonID)
			}
		}
	}

	res := map[string]catalogModel.Addon{}
	if len(ids) == 0 {
		return res, nil
	}

	addons, err := s.addonRepo.GetAll(ctx, gDto.QueryParams{}, activeByIDs(ids, catalogModel.AddonTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog addons")

		return nil, fmt.Errorf("failed to load catalog addons: %w", err)
	}

	for _, addon := range addons {
		res[addon.ID] = addon
	}

	return res, nil
}

func activeByIDs(ids []string, table string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    catalogModel.FieldID,
				Operator: gDto.FilterOperatorIn,
				Value:    ids,
				Table:    table,
			},
			gDto.Filter{
				Field:    catalogModel.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
				Table:    table,
			},
		},
	}
}

func parseDates(product model.ProductType, req dto.CreateBookingRequest) (dates stayDates, err error) {
	serviceDate, err := timezone.Parse(constant.DateOnlyFormat, req.ServiceDate)
	if err != nil {
		return dates, failure.BadRequestFromString("service_date must be a valid YYYY-MM-DD date")
	}

	if timezone.CalendarDate(serviceDate).Before(timezone.CalendarDate(timezone.Today())) {
		return dates, failure.BadRequestFromString("service_date must be today or later")
	}

	dates.serviceDate = serviceDate

	if !product.PerNight {
		return dates, nil
	}

	if req.CheckOut == "" {
		return dates, failure.BadRequestFromString("check_out is required for stays")
	}

	checkOut, err := timezone.Parse(constant.DateOnlyFormat, req.CheckOut)
	if err != nil {
		return dates, failure.BadRequestFromString("check_out must be a valid YYYY-MM-DD date")
	}

	nights := int(timezone.CalendarDate(checkOut).Sub(timezone.CalendarDate(serviceDate)).Hours() / hoursPerDay)
	if nights <= 0 {
		return dates, failure.BadRequestFromString("check_out must be after check_in")
	}

	dates.endDate = &checkOut
	dates.nights = nights

	return dates, nil
}

// checkClientFigures rejects line items whose own unit price, quantity and subtotal disagree.
func checkClientFigures(product model.ProductType, dates stayDates, reqItems []dto.ItemRequest) error {
	for _, item := range reqItems {
		if len(item.Addons) > 0 && !product.AllowsAddons {
			return failure.BadRequestFromString(fmt.Sprintf("add-ons are not available for %s bookings", product.Kind))
		}

		if !consistent(item.UnitPrice, item.Subtotal, item.Quantity*multiplier(dates)) {
			return failure.BadRequestFromString(fmt.Sprintf("subtotal of catalog item %s does not match unit_price x quantity", item.CatalogItemID))
		}

		for _, addon := range item.Addons {
			if !consistent(addon.UnitPrice, addon.Subtotal, addon.Quantity) {
				return failure.BadRequestFromString(fmt.Sprintf("subtotal of add-on %s does not match unit_price x quantity", addon.AddonID))
			}
		}
	}

	return nil
}

func consistent(unitPrice, subtotal *float64, units int) bool {
	if unitPrice == nil || subtotal == nil {
		return true
	}

	return money.Equal(*unitPrice*float64(units), *subtotal)
}

func multiplier(dates stayDates) int {
	if dates.nights > 0 {
		return dates.nights
	}

	return 1
}
