package enums

import (
	"fmt"
	"strings"
)

// ProductSort selects the ordering of catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortRating    ProductSort = "rating"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortRating,
}

func (s ProductSort) String() string {
	return string(s)
}

// ParseProductSort converts raw input into a ProductSort; empty input means newest.
func ParseProductSort(value string) (ProductSort, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}
