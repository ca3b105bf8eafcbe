package soapnotes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ot-backend/internal/shared/server/respond"
)

// Handler serves the SOAP note endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches SOAP note routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ot/soap_notes", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	c.Set("operation", "soap_notes")

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", err)
		return
	}

	note, err := h.Svc.Generate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrShorthandRequired):
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, ErrShorthandRequired.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeGeneration, "note generation failed", err)
		}
		return
	}
	respond.OK(c, "note", note)
}
