package handlers

import (
	"net/http"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ReceivingHandler struct {
	service *service.ReceivingService
}

func NewReceivingHandler(svc *service.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{service: svc}
}

// GetDefaults returns the starting received quantities of an order.
func (h *ReceivingHandler) GetDefaults(c *gin.Context) {
	received, err := h.service.Defaults(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "received": received})
}

func (h *ReceivingHandler) GetCoverage(c *gin.Context) {
	priceListID := c.Query("price_list_id")
	if priceListID == "" {
		badRequest(c, "price_list_id is required")
		return
	}
	report, err := h.service.Coverage(c.Request.Context(), c.Param("id"), priceListID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Calculate previews the new unit costs of a delivery.
func (h *ReceivingHandler) Calculate(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	result, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export calculates, archives and downloads the cost CSV.
func (h *ReceivingHandler) Export(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	result, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.ArchiveKey != "" {
		c.Header("X-Archive-Key", result.ArchiveKey)
	}
	sendCSV(c, result.Filename, result.CSV)
}

func (h *ReceivingHandler) ListExports(c *gin.Context) {
	objects, err := h.service.Archived(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": objects})
}
