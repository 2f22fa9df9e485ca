package product

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mercantile/storefront/pkg/enums"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/pagination"
	"github.com/mercantile/storefront/pkg/types"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category        string
	Query           string
	Sort            enums.ProductSort
	IncludeInactive bool
}

// ListInput captures the inputs needed to page through the catalog.
type ListInput struct {
	Filters ListFilters
	Page    pagination.Page
}

// ListResult is one page of products.
type ListResult struct {
	Products []ProductDTO   `json:"products"`
	Meta     types.PageMeta `json:"meta"`
}

// ParseListQuery reads page, limit, category, q and sort from a query string.
func ParseListQuery(query url.Values) (ListInput, error) {
	page, err := parsePositiveInt(query.Get("page"), pagination.DefaultPage, "page")
	if err != nil {
		return ListInput{}, err
	}
	limit, err := parsePositiveInt(query.Get("limit"), pagination.DefaultLimit, "limit")
	if err != nil {
		return ListInput{}, err
	}
	if limit > pagination.MaxLimit {
		return ListInput{}, pkgerrors.Newf(pkgerrors.CodeValidation, "limit must be at most %d", pagination.MaxLimit)
	}
	sort, err := enums.ParseProductSort(query.Get("sort"))
	if err != nil {
		return ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}
	return ListInput{
		Filters: ListFilters{
			Category: strings.TrimSpace(query.Get("category")),
			Query:    strings.TrimSpace(query.Get("q")),
			Sort:     sort,
		},
		Page: pagination.NewPage(page, limit),
	}, nil
}

func parsePositiveInt(raw string, fallback int, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a positive integer", field)
	}
	return v, nil
}
