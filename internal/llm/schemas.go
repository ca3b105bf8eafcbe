package llm

import _ "embed"

// Schema names sent to providers.
const (
	SchemaOverview     = "overview"
	SchemaInsights     = "pillar_insights"
	SchemaPlan         = "plan"
	SchemaClinicalNote = "clinical_note"
)

var (
	//go:embed schemas/overview.json
	overviewSchemaJSON []byte
	//go:embed schemas/pillar_insights.json
	insightsSchemaJSON []byte
	//go:embed schemas/plan.json
	planSchemaJSON []byte
	//go:embed schemas/clinical_note.json
	clinicalNoteSchemaJSON []byte
)

var (
	overviewSchema     = MustSchema(overviewSchemaJSON)
	insightsSchema     = MustSchema(insightsSchemaJSON)
	planSchema         = MustSchema(planSchemaJSON)
	clinicalNoteSchema = MustSchema(clinicalNoteSchemaJSON)

	// insights schemas for the usual 0..3 selected pillars, built once.
	insightsByCount = func() []Schema {
		out := make([]Schema, 4)
		for n := range out {
			s, err := insightsSchema.WithItemBounds("insights", n, n)
			if err != nil {
				panic(err)
			}
			out[n] = s
		}
		return out
	}()
)

// OverviewSchema is the OTPF-4 overview contract.
func OverviewSchema() Schema { return overviewSchema }

// PlanSchema is the intervention-plan contract.
func PlanSchema() Schema { return planSchema }

// ClinicalNoteSchema is the SOAP-note contract.
func ClinicalNoteSchema() Schema { return clinicalNoteSchema }

// InsightsSchema is the pillar-insights contract requiring exactly n insights.
func InsightsSchema(n int) (Schema, error) {
	if n < 0 {
		n = 0
	}
	if n < len(insightsByCount) {
		return insightsByCount[n], nil
	}
	return insightsSchema.WithItemBounds("insights", n, n)
}
