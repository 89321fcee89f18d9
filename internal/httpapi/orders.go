package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/orders"
	"backoffice-platform/internal/versioned"
)

type orderResponse struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
	TotalMinor   int64  `json:"total_minor"`
	UpdatedAt    int64  `json:"updated_at"`
}

func toOrderResponse(o orders.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		Number:       o.Number,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		TotalMinor:   o.TotalMinor,
		UpdatedAt:    versioned.Micros(o.UpdatedAt),
	}
}

type orderRequest struct {
	CustomerName      string `json:"customer_name"`
	TotalMinor        int64  `json:"total_minor"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (h Handlers) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Orders.Create(c.Request.Context(), orders.OrderPatch{
		CustomerName: req.CustomerName, TotalMinor: req.TotalMinor,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(out))
}

func (h Handlers) GetOrder(c *gin.Context) {
	out, err := h.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(out))
}

func (h Handlers) ListOrders(c *gin.Context) {
	os, err := h.Orders.List(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]orderResponse, 0, len(os))
	for _, o := range os {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h Handlers) UpdateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Orders.Update(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt),
		orders.OrderPatch{CustomerName: req.CustomerName, TotalMinor: req.TotalMinor},
	)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(out))
}

type orderStatusRequest struct {
	Status            string `json:"status"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (h Handlers) UpdateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt), req.Status)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(out))
}

func (h Handlers) DeleteOrder(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.Orders.Delete(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
