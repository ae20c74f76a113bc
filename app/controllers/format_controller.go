package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/format"
	"github.com/gin-gonic/gin"
)

// FormatController validates and renders format strings and exposes the
// type catalog.
type FormatController struct {
	formatService *services.FormatService
}

func NewFormatController(formatService *services.FormatService) *FormatController {
	return &FormatController{formatService: formatService}
}

// ValidateFormat compiles a format string. An invalid format is a
// successful request with Valid false.
func (fc *FormatController) ValidateFormat(c *gin.Context) {
	var req requests.FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	pf, err := fc.formatService.Validate(req.Format)
	var syn *format.SyntaxError
	switch {
	case errors.As(err, &syn):
		c.JSON(http.StatusOK, responses.FormatValidateResponse{
			Error: &responses.FormatError{
				Message: syn.Msg,
				Offset:  syn.Offset,
				Length:  syn.Length,
				Caret:   syn.Caret(req.Format),
			},
		})
	case err != nil:
		respondError(c, http.StatusInternalServerError, "FORMAT_ERROR", err.Error())
	default:
		c.JSON(http.StatusOK, responses.FormatValidateResponse{
			Valid:  true,
			Items:  pf.Len(),
			Source: pf.String(),
		})
	}
}

// RenderFormat renders the given components with a format string.
func (fc *FormatController) RenderFormat(c *gin.Context) {
	var req requests.FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	text, err := fc.formatService.Render(req.Format, req.Components, req.Types, req.PostalCode)
	if err != nil {
		if !respondFormatError(c, req.Format, err) {
			respondError(c, http.StatusBadRequest, "INVALID_COMPONENT", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, responses.FormatRenderResponse{Text: text})
}

// LookupTypes lists the levels a type name is known at.
func (fc *FormatController) LookupTypes(c *gin.Context) {
	text := strings.TrimSpace(c.Query("text"))
	if text == "" {
		respondError(c, http.StatusBadRequest, "MISSING_TEXT", "query parameter text is required")
		return
	}
	c.JSON(http.StatusOK, responses.TypeLookupResponse{
		Text:   text,
		Levels: fc.formatService.LookupTypes(text),
	})
}
