package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type PriceListHandler struct {
	service *service.PriceListService
}

func NewPriceListHandler(svc *service.PriceListService) *PriceListHandler {
	return &PriceListHandler{service: svc}
}

func (h *PriceListHandler) ListPriceLists(c *gin.Context) {
	lists, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lists})
}

// UploadPriceList stores a price list from a multipart "file" field. The
// name defaults to the file name.
func (h *PriceListHandler) UploadPriceList(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	list, err := h.service.Upload(c.Request.Context(), name, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *PriceListHandler) GetPriceList(c *gin.Context) {
	list, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PriceListHandler) DeletePriceList(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PriceListHandler) DownloadPriceList(c *gin.Context) {
	data, filename, err := h.service.DownloadCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, filename, data)
}

func (h *PriceListHandler) GetTable(c *gin.Context) {
	table, err := h.service.Table(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

type saveTableRequest struct {
	Table    *csvcodec.Table `json:"table" binding:"required"`
	EditedBy string          `json:"edited_by"`
}

// SaveTable replaces the rows of a price list with an edited table.
func (h *PriceListHandler) SaveTable(c *gin.Context) {
	var req saveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	list, err := h.service.SaveTable(c.Request.Context(), c.Param("id"), req.Table, req.EditedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type bulkEditRequest struct {
	Selected []int              `json:"selected" binding:"required"`
	Edit     pricelist.BulkEdit `json:"edit"`
	EditedBy string             `json:"edited_by"`
}

// BulkEdit applies one change to the selected rows and saves the list.
func (h *PriceListHandler) BulkEdit(c *gin.Context) {
	var req bulkEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	list, err := h.service.BulkEdit(c.Request.Context(), c.Param("id"), req.Selected, req.Edit, req.EditedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
