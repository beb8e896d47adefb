package handlers

import (
	"io"
	"net/http"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

type OrderHandler struct {
	service *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{service: svc}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	orders, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// CreateOrder stores an order built from selected suggestion rows.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	order, err := h.service.CreateFromSuggestions(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UploadOrder stores an order from a multipart "file" field.
func (h *OrderHandler) UploadOrder(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}
	order, err := h.service.Upload(c.Request.Context(), c.PostForm("name"), filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) DownloadOrder(c *gin.Context) {
	data, filename, err := h.service.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, filename, data)
}

func readUpload(c *gin.Context) (filename, data string, ok bool) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return "", "", false
	}
	if header.Size > maxUploadBytes {
		badRequest(c, "file is too large")
		return "", "", false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return "", "", false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respondError(c, err)
		return "", "", false
	}
	return header.Filename, string(content), true
}
