package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ot-backend/internal/assessments"
	"ot-backend/internal/services/health"
	"ot-backend/internal/shared/config"
	"ot-backend/internal/shared/metrics"
	"ot-backend/internal/shared/server/middleware"
	"ot-backend/internal/shared/server/respond"
	"ot-backend/internal/shared/telemetry"
	"ot-backend/internal/soapnotes"
)

const (
	rateGroupAnalyze = "ANALYZE"
	rateGroupSoap    = "SOAP"
)

// RouterDeps groups the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *assessments.Handler
	SoapHandler     *soapnotes.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	// X-Forwarded-For is honored only from configured proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		telemetry.Warn("server.trusted_proxies_invalid", map[string]any{
			"proxies": cfg.TrustedProxies,
			"error":   err,
		})
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.RouteGroups(map[string]string{
				"/api/ot/analyze":    rateGroupAnalyze,
				"/api/ot/soap_notes": rateGroupSoap,
			}),
			Rules: map[string]middleware.RateLimitRule{
				rateGroupAnalyze: {Rate: cfg.AnalyzeRate, Burst: cfg.AnalyzeBurst},
				rateGroupSoap:    {Rate: cfg.SoapRate, Burst: cfg.SoapBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.SoapHandler != nil {
		deps.SoapHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
