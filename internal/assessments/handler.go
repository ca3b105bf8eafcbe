package assessments

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ot-backend/internal/shared/server/respond"
)

// Handler serves the analyze endpoint.
type Handler struct {
	Analyzer *Analyzer
}

// NewHandler constructs a Handler.
func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{Analyzer: analyzer}
}

// RegisterRoutes attaches analyze routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ot/analyze", h.analyze)
}

type analyzeRequest struct {
	Assessment    *Assessment     `json:"assessment"`
	PillarNameMap *Object[string] `json:"pillarNameMap"`
}

func (h *Handler) analyze(c *gin.Context) {
	c.Set("operation", "analyze")

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", err)
		return
	}
	if req.Assessment == nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, ErrAssessmentRequired.Error(), nil)
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), AnalyzeInput{
		Assessment:    req.Assessment,
		PillarNameMap: req.PillarNameMap,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeAnalysis, "analysis failed", err)
		return
	}
	respond.OK(c, "result", result)
}
