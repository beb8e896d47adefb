package handlers

import (
	"net/http"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sales"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type PurchasingHandler struct {
	service  *service.PurchasingService
	defaults reorder.Params
}

func NewPurchasingHandler(svc *service.PurchasingService, defaults reorder.Params) *PurchasingHandler {
	return &PurchasingHandler{service: svc, defaults: defaults}
}

// GetSuggestions computes the suggestion table for the requested period.
func (h *PurchasingHandler) GetSuggestions(c *gin.Context) {
	start, end, ok := h.period(c)
	if !ok {
		return
	}

	params := h.defaults
	var valid bool
	if params.DeliveryTimeDays, valid = queryFloat(c, "delivery_time_days", params.DeliveryTimeDays); !valid {
		badRequest(c, "invalid delivery_time_days")
		return
	}
	if params.CoverageDays, valid = queryFloat(c, "coverage_days", params.CoverageDays); !valid {
		badRequest(c, "invalid coverage_days")
		return
	}
	if params.GrowthPercent, valid = queryFloat(c, "growth_percent", params.GrowthPercent); !valid {
		badRequest(c, "invalid growth_percent")
		return
	}
	limit, valid := queryInt(c, "limit", 0)
	if !valid {
		badRequest(c, "invalid limit")
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), service.AnalysisRequest{
		StartDate:  start,
		EndDate:    end,
		Policy:     c.Query("policy"),
		Params:     params,
		Supplier:   c.Query("supplier"),
		Collection: c.Query("collection"),
		Urgency:    c.Query("urgency"),
		SortBy:     c.Query("sort_by"),
		SortDir:    c.Query("sort_dir"),
		Limit:      limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type exportSuggestionsRequest struct {
	Rows      []domain.ReorderSuggestion `json:"rows" binding:"required"`
	Overrides map[string]int             `json:"overrides"`
}

// ExportSuggestions renders selected rows with edited quantities as an order CSV.
func (h *PurchasingHandler) ExportSuggestions(c *gin.Context) {
	var req exportSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	filename := "purchase_order_" + time.Now().Format(dateLayout) + ".csv"
	sendCSV(c, filename, csvcodec.SuggestionsCSV(req.Rows, req.Overrides))
}

// GetSalesOverview returns standalone and bundle sales for the period.
func (h *PurchasingHandler) GetSalesOverview(c *gin.Context) {
	start, end, ok := h.period(c)
	if !ok {
		return
	}

	overview, err := h.service.SalesOverview(c.Request.Context(), start, end, sales.BreakdownFilter{
		ProductType: c.Query("product_type"),
		Collection:  c.Query("collection"),
		Supplier:    c.Query("supplier"),
		SortBy:      c.Query("sort_by"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetIncoming returns the latest incoming quantities.
func (h *PurchasingHandler) GetIncoming(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Incoming())
}

func (h *PurchasingHandler) period(c *gin.Context) (start, end time.Time, ok bool) {
	start, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		badRequest(c, "start_date must be YYYY-MM-DD")
		return start, end, false
	}
	end, err = time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		badRequest(c, "end_date must be YYYY-MM-DD")
		return start, end, false
	}
	return start, end, true
}
