package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/service"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var badRequestErrors = []error{
	service.ErrInvalidRequest,
	csvcodec.ErrNoDataRows,
	csvcodec.ErrMissingColumns,
	pricelist.ErrUnknownColumn,
	pricelist.ErrRowOutOfRange,
	session.ErrInvalidID,
}

// respondError maps an error to a status: not found is 404, input problems
// are 400 and everything else is 500.
func respondError(c *gin.Context, err error) {
	var (
		parseErr      *csvcodec.ParseError
		validationErr *pricelist.ValidationError
	)

	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": pricelist.ErrInvalidRows.Error(), "issues": validationErr.Issues})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "row": parseErr.Row, "column": parseErr.Column})
	case isBadRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("api: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func queryFloat(c *gin.Context, key string, fallback float64) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func sendCSV(c *gin.Context, filename, data string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(data))
}
