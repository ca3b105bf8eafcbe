package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"ot-backend/internal/assessments"
	"ot-backend/internal/llm"
	"ot-backend/internal/llm/gemini"
	"ot-backend/internal/llm/openai"
	"ot-backend/internal/services/health"
	"ot-backend/internal/shared/config"
	"ot-backend/internal/shared/server"
	"ot-backend/internal/shared/telemetry"
	"ot-backend/internal/soapnotes"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	LLM             llm.Client
	Analyzer        *assessments.Analyzer
	SoapNotes       *soapnotes.Service
	AnalysisHandler *assessments.Handler
	SoapHandler     *soapnotes.Handler
	Health          *health.Service
}

// Build configures logging, selects the completion provider and wires the
// router.
func Build(cfg config.Config) (*App, error) {
	if err := telemetry.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	base, err := buildLLM(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return BuildWithClient(cfg, base)
}

// BuildWithClient wires the app around base, wrapped in the standard
// completion middleware.
func BuildWithClient(cfg config.Config, base llm.Client) (*App, error) {
	pillarNames, err := assessments.ParsePillarNames(cfg.PillarNames)
	if err != nil {
		return nil, fmt.Errorf("PILLAR_NAMES: %w", err)
	}

	client := llm.Chain(base,
		llm.WithLogging(cfg.LLMProvider),
		llm.WithMetrics(),
		llm.WithTracing(cfg.LLMProvider),
		llm.WithCache(cfg.LLMCacheSize),
		llm.WithValidation(),
		llm.WithTimeout(cfg.LLMTimeout),
	)

	app := &App{
		Config: cfg,
		LLM:    client,
		Analyzer: assessments.NewAnalyzer(client, assessments.AnalyzerConfig{
			PillarNames: pillarNames,
		}),
		SoapNotes: soapnotes.NewService(client, ""),
		Health:    health.NewService(cfg.LLMProvider, cfg.LLMModel),
	}
	app.AnalysisHandler = assessments.NewHandler(app.Analyzer)
	app.SoapHandler = soapnotes.NewHandler(app.SoapNotes)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		SoapHandler:     app.SoapHandler,
		Health:          app.Health,
	})
	return app, nil
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
		key    string
	)
	switch cfg.LLMProvider {
	case "gemini":
		key = cfg.GeminiAPIKey
		if key != "" {
			client, err = gemini.NewClient(ctx, key, cfg.LLMModel)
		}
	default:
		key = cfg.OpenAIAPIKey
		if key != "" {
			client, err = openai.NewClient(key, cfg.LLMModel, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
	}
	if err != nil {
		return nil, err
	}
	if client != nil {
		return client, nil
	}

	if !cfg.IsDevLike() {
		return nil, fmt.Errorf("%s API key is required when ENV=%s", cfg.LLMProvider, cfg.Env)
	}
	telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
		"provider": cfg.LLMProvider,
		"reason":   "no API key configured",
	})
	return llm.PlaceholderClient{}, nil
}
