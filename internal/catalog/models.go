package catalog

import "time"

// Category is a mutable entity; UpdatedAt is its concurrency token and
// changes on every successful write, only on a successful write.
type Category struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	UpdatedAt time.Time `json:"-"`
}

// CategoryPatch carries the editable fields of a category.
type CategoryPatch struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// categoryAuditFields is the allowlist projected into audit diffs.
// Internal-only columns stay out of the log.
var categoryAuditFields = []string{"code", "name", "sort_order"}

func (c Category) auditState() map[string]any {
	return map[string]any{
		"code":       c.Code,
		"name":       c.Name,
		"sort_order": c.SortOrder,
	}
}

type Item struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id"`
	PriceMinor int64     `json:"price_minor"`
	Available  bool      `json:"available"`
	UpdatedAt  time.Time `json:"-"`
}

type ItemPatch struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	PriceMinor int64  `json:"price_minor"`
	Available  bool   `json:"available"`
}

var itemAuditFields = []string{"sku", "name", "category_id", "price_minor", "available"}

func (i Item) auditState() map[string]any {
	return map[string]any{
		"sku":         i.SKU,
		"name":        i.Name,
		"category_id": i.CategoryID,
		"price_minor": i.PriceMinor,
		"available":   i.Available,
	}
}
