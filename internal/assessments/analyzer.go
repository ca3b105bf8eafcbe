package assessments

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ot-backend/internal/llm"
	"ot-backend/internal/shared/metrics"
)

// AnalyzerConfig carries the defaults an Analyzer applies to every request.
type AnalyzerConfig struct {
	// PillarNames is sent when a request has no pillarNameMap.
	PillarNames Object[string]
	// Model overrides the completion client's default model when set.
	Model string
}

// Analyzer turns one assessment into an overview, pillar insights and a plan
// with three concurrent completions.
type Analyzer struct {
	llm llm.Client
	cfg AnalyzerConfig
}

// NewAnalyzer builds an Analyzer. An empty PillarNames falls back to
// DefaultPillarNames.
func NewAnalyzer(client llm.Client, cfg AnalyzerConfig) *Analyzer {
	if cfg.PillarNames.Len() == 0 {
		cfg.PillarNames = DefaultPillarNames()
	}
	return &Analyzer{llm: client, cfg: cfg}
}

// AnalyzeInput is one analyze request.
type AnalyzeInput struct {
	Assessment    *Assessment
	PillarNameMap *Object[string]
}

// InsightsPayload shapes the pillar-insights user message.
func (a *Analyzer) InsightsPayload(in AnalyzeInput) InsightsPayload {
	names := a.cfg.PillarNames
	if in.PillarNameMap != nil {
		names = *in.PillarNameMap
	}
	return InsightsPayload{
		SelectedTop3:  in.Assessment.Selected(),
		Scores:        in.Assessment.PillarScores(),
		Reflections:   in.Assessment.PillarReflections(),
		PillarNameMap: names,
	}
}

// Analyze runs the overview, insights and plan completions concurrently and
// returns all three or the first error. The first failure cancels the other
// calls.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (result AnalysisResult, err error) {
	if in.Assessment == nil {
		return AnalysisResult{}, ErrAssessmentRequired
	}
	start := time.Now()
	defer func() {
		metrics.ObserveOperation("analyze", llm.Outcome(err), time.Since(start))
	}()

	insights := a.InsightsPayload(in)
	insightsSchema, err := llm.InsightsSchema(len(insights.SelectedTop3))
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("insights schema: %w", err)
	}

	var out AnalysisResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := llm.CompleteAs[OverviewResult](gctx, a.llm, llm.CompletionRequest{
			SystemPrompt: llm.MustPrompt(llm.PromptOverview),
			UserPayload:  in.Assessment,
			SchemaName:   llm.SchemaOverview,
			Schema:       llm.OverviewSchema(),
			Model:        a.cfg.Model,
		})
		if err != nil {
			return fmt.Errorf("overview: %w", err)
		}
		out.Overview = r
		return nil
	})
	g.Go(func() error {
		r, err := llm.CompleteAs[InsightsResult](gctx, a.llm, llm.CompletionRequest{
			SystemPrompt: llm.MustPrompt(llm.PromptPillarInsight),
			UserPayload:  insights,
			SchemaName:   llm.SchemaInsights,
			Schema:       insightsSchema,
			Model:        a.cfg.Model,
		})
		if err != nil {
			return fmt.Errorf("insights: %w", err)
		}
		out.Insights = r
		return nil
	})
	g.Go(func() error {
		r, err := llm.CompleteAs[PlanResult](gctx, a.llm, llm.CompletionRequest{
			SystemPrompt: llm.MustPrompt(llm.PromptInterventionPlan),
			UserPayload:  PlanPayload{Text: in.Assessment.StitchedText()},
			SchemaName:   llm.SchemaPlan,
			Schema:       llm.PlanSchema(),
			Model:        a.cfg.Model,
		})
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		out.Plan = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return AnalysisResult{}, err
	}
	return out, nil
}
