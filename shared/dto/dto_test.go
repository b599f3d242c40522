package dto_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resort/shared/constant"
	"resort/shared/dto"
	"resort/shared/model"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	modifiedAt := createdAt.Add(26 * time.Hour)

	var metadata dto.Metadata
	metadata.FromModel(model.Metadata{CreatedAt: createdAt, ModifiedAt: modifiedAt, CreatedBy: "guest@resort.test", ModifiedBy: "desk@resort.test"})

	assert.Equal(t, createdAt.Format(constant.DateFormat), metadata.CreatedAt)
	assert.Equal(t, modifiedAt.Format(constant.DateFormat), metadata.ModifiedAt)
	assert.Equal(t, "guest@resort.test", metadata.CreatedBy)
	assert.Equal(t, "desk@resort.test", metadata.ModifiedBy)
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		withDefaults bool
		expected     dto.QueryParams
	}{
		{
			name:     "all values",
			query:    "?page=2&limit=20&sort_by=price&sort_dir=asc",
			expected: dto.QueryParams{Page: 2, Limit: 20, SortBy: "price", SortDir: dto.SortDirAsc},
		},
		{
			name:         "defaults when missing",
			withDefaults: true,
			expected: dto.QueryParams{
				Page:    constant.DefaultValuePage,
				Limit:   constant.DefaultValueLimit,
				SortBy:  constant.DefaultValueSortBy,
				SortDir: constant.DefaultValueSortDir,
			},
		},
		{
			name:         "malformed values ignored",
			query:        "?page=-1&limit=ten&sort_by=name&sort_dir=sideways",
			withDefaults: true,
			expected: dto.QueryParams{
				Page:    constant.DefaultValuePage,
				Limit:   constant.DefaultValueLimit,
				SortBy:  "name",
				SortDir: constant.DefaultValueSortDir,
			},
		},
		{
			name:     "limit capped",
			query:    "?limit=5000",
			expected: dto.QueryParams{Limit: constant.MaxValueLimit},
		},
		{
			name:  "no defaults leaves zero values",
			query: "?sort_dir=DESC",
			expected: dto.QueryParams{
				SortDir: dto.SortDirDesc,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params dto.QueryParams
			params.FromRequest(httptest.NewRequest("GET", "/v1/catalog/"+tt.query, nil), tt.withDefaults)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "equality with table",
			filter:    dto.Filter{Field: "status", Value: "CONFIRMED", Operator: dto.FilterOperatorEq, Table: "bookings"},
			wantWhere: "bookings.status = :status",
			wantArgs:  map[string]any{"status": "CONFIRMED"},
		},
		{
			name:      "arg name override",
			filter:    dto.Filter{ArgName: "check_out_from", Field: "check_out", Value: "2026-12-24", Operator: dto.FilterOperatorGreaterEq},
			wantWhere: "check_out >= :check_out_from",
			wantArgs:  map[string]any{"check_out_from": "2026-12-24"},
		},
		{
			name:      "like",
			filter:    dto.Filter{Field: "name", Value: "Villa", Operator: dto.FilterOperatorLike},
			wantWhere: "name ILIKE :name",
			wantArgs:  map[string]any{"name": "%Villa%"},
		},
		{
			name:      "like escapes wildcards",
			filter:    dto.Filter{Field: "name", Value: `50%_off\`, Operator: dto.FilterOperatorLike},
			wantWhere: "name ILIKE :name",
			wantArgs:  map[string]any{"name": `%50\%\_off\\%`},
		},
		{
			name:      "in slice",
			filter:    dto.Filter{Field: "status", Value: []string{"PENDING", "CONFIRMED"}, Operator: dto.FilterOperatorIn},
			wantWhere: "status IN (:status_0, :status_1)",
			wantArgs:  map[string]any{"status_0": "PENDING", "status_1": "CONFIRMED"},
		},
		{
			name:      "in empty slice",
			filter:    dto.Filter{Field: "status", Value: []string{}, Operator: dto.FilterOperatorIn},
			wantWhere: "FALSE",
			wantArgs:  map[string]any{},
		},
		{
			name:      "in scalar binds a single value",
			filter:    dto.Filter{Field: "kind", Value: "stay", Operator: dto.FilterOperatorIn},
			wantWhere: "kind = :kind",
			wantArgs:  map[string]any{"kind": "stay"},
		},
		{
			name:      "is null",
			filter:    dto.Filter{Field: "deleted_at", Operator: dto.FilterIsNull, Table: "users"},
			wantWhere: "users.deleted_at IS NULL",
			wantArgs:  map[string]any{},
		},
		{
			name:      "unknown operator",
			filter:    dto.Filter{Field: "name", Value: "x", Operator: "between"},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "kind", Value: "stay", Operator: dto.FilterOperatorEq},
			dto.Filter{Field: "name", Operator: "unsupported"},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{ArgName: "min_price", Field: "price", Value: 100, Operator: dto.FilterOperatorGreaterEq},
					dto.Filter{Field: "featured", Operator: dto.FilterIsNotNull},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(kind = :kind AND (price >= :min_price OR featured IS NOT NULL))", where)
	assert.Equal(t, map[string]any{"kind": "stay", "min_price": 100}, args)

	implicitAnd := dto.FilterGroup{Filters: []any{
		dto.Filter{Field: "kind", Value: "stay", Operator: dto.FilterOperatorEq},
		dto.Filter{Field: "active", Value: true, Operator: dto.FilterOperatorEq},
	}}
	where, _ = implicitAnd.GetWhereClause()

	assert.Equal(t, "(kind = :kind AND active = :active)", where)

	empty := dto.FilterGroup{}
	where, args = empty.GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestDecodeWithAliases(t *testing.T) {
	type request struct {
		BookingID string `json:"booking_id"`
		Reason    string `json:"reason"`
	}

	tests := []struct {
		name     string
		body     string
		expected request
		wantErr  bool
	}{
		{
			name:     "canonical key",
			body:     `{"booking_id":"b-1","reason":"storm"}`,
			expected: request{BookingID: "b-1", Reason: "storm"},
		},
		{
			name:     "camel case key",
			body:     `{"bookingId":"b-2"}`,
			expected: request{BookingID: "b-2"},
		},
		{
			name:     "alias matches case-insensitively",
			body:     `{"bookingID":"b-3"}`,
			expected: request{BookingID: "b-3"},
		},
		{
			name:     "canonical key wins",
			body:     `{"booking_id":"b-4","bookingId":"b-5"}`,
			expected: request{BookingID: "b-4"},
		},
		{
			name:    "alias with wrong type",
			body:    `{"bookingId":42}`,
			wantErr: true,
		},
		{
			name:    "malformed",
			body:    `{"booking_id":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req request

			err := dto.DecodeWithAliases([]byte(tt.body), &req, map[string]*string{"bookingId": &req.BookingID})
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, req)
		})
	}
}
