package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/catalog"
	"backoffice-platform/internal/versioned"
)

// categoryResponse echoes UpdatedAt as the version token in unix micros;
// clients send it back untouched as expected_updated_at.
type categoryResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	UpdatedAt int64  `json:"updated_at"`
}

func toCategoryResponse(c catalog.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		UpdatedAt: versioned.Micros(c.UpdatedAt),
	}
}

type categoryRequest struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	SortOrder         int    `json:"sort_order"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (h Handlers) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Catalog.CreateCategory(c.Request.Context(), catalog.CategoryPatch{
		Code: req.Code, Name: req.Name, SortOrder: req.SortOrder,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(out))
}

func (h Handlers) GetCategory(c *gin.Context) {
	out, err := h.Catalog.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(out))
}

func (h Handlers) ListCategories(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryResponse(cat))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h Handlers) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt),
		catalog.CategoryPatch{Code: req.Code, Name: req.Name, SortOrder: req.SortOrder},
	)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(out))
}

type deleteRequest struct {
	ExpectedUpdatedAt int64 `json:"expected_updated_at"`
}

func (h Handlers) DeleteCategory(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type itemResponse struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	PriceMinor int64  `json:"price_minor"`
	Available  bool   `json:"available"`
	UpdatedAt  int64  `json:"updated_at"`
}

func toItemResponse(i catalog.Item) itemResponse {
	return itemResponse{
		ID:         i.ID,
		SKU:        i.SKU,
		Name:       i.Name,
		CategoryID: i.CategoryID,
		PriceMinor: i.PriceMinor,
		Available:  i.Available,
		UpdatedAt:  versioned.Micros(i.UpdatedAt),
	}
}

type itemRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	CategoryID        string `json:"category_id"`
	PriceMinor        int64  `json:"price_minor"`
	Available         bool   `json:"available"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (r itemRequest) patch() catalog.ItemPatch {
	return catalog.ItemPatch{
		SKU:        r.SKU,
		Name:       r.Name,
		CategoryID: r.CategoryID,
		PriceMinor: r.PriceMinor,
		Available:  r.Available,
	}
}

func (h Handlers) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Catalog.CreateItem(c.Request.Context(), req.patch())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(out))
}

func (h Handlers) GetItem(c *gin.Context) {
	out, err := h.Catalog.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(out))
}

func (h Handlers) ListItems(c *gin.Context) {
	items, err := h.Catalog.ListItems(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItemResponse(i))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h Handlers) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Catalog.UpdateItem(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt), req.patch())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(out))
}

func (h Handlers) DeleteItem(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.Catalog.DeleteItem(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
