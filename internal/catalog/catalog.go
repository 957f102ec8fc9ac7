// Package catalog exposes the paginated, sortable product catalog view and
// the product detail lookup.
package catalog

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Query is the mutable catalog view state. Zero values mean unset; unset
// fields are omitted from the outbound request so the server default
// applies. Fields are independent: changing one never resets the others.
type Query struct {
	Page      int
	Sort      string
	Direction string
}

// Values encodes only the set fields.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	return v
}

// ProductSummary is one catalog row.
type ProductSummary struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	Price     decimal.Decimal `json:"product_price"`
	Amount    int             `json:"product_amount"`
	Status    bool            `json:"product_status"`
}

// Page is one fetched catalog page. It is replaced wholesale on every
// successful fetch, never patched in place.
type Page struct {
	Items         []ProductSummary `json:"product_info"`
	CurrentPage   int              `json:"currentPage"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int              `json:"totalElements"`
	HasNext       bool             `json:"hasNext"`
	HasPrevious   bool             `json:"hasPrevious"`
}

// ProductDetail is the full product record.
type ProductDetail struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Amount       int             `json:"amount"`
	Status       bool            `json:"status"`
	CreatedDate  string          `json:"created_date"`
	ModifiedDate string          `json:"modified_date"`
}

// PageWindow lists the page numbers worth rendering around current: pages
// within 5 on either side, clamped to [1, total]. Previous/next controls are
// gated by HasPrevious/HasNext, not by this window.
func PageWindow(current, total int) []int {
	var pages []int
	for p := 1; p <= total; p++ {
		if p >= current-5 && p <= current+5 {
			pages = append(pages, p)
		}
	}
	return pages
}
