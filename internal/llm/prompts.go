package llm

import _ "embed"

// Prompt template names.
const (
	PromptOverview         = "overview_otpf4"
	PromptPillarInsight    = "pillar_insight"
	PromptInterventionPlan = "intervention_plan"
	PromptSoapNotes        = "soap_notes"
)

var (
	//go:embed prompts/overview_otpf4.txt
	promptOverview string
	//go:embed prompts/pillar_insight.txt
	promptPillarInsight string
	//go:embed prompts/intervention_plan.txt
	promptInterventionPlan string
	//go:embed prompts/soap_notes.txt
	promptSoapNotes string
)

// PromptTemplate returns the system prompt text and whether the name was recognized.
func PromptTemplate(name string) (string, bool) {
	switch name {
	case PromptOverview:
		return promptOverview, true
	case PromptPillarInsight:
		return promptPillarInsight, true
	case PromptInterventionPlan:
		return promptInterventionPlan, true
	case PromptSoapNotes:
		return promptSoapNotes, true
	default:
		return "", false
	}
}

// MustPrompt returns the named template or panics.
func MustPrompt(name string) string {
	p, ok := PromptTemplate(name)
	if !ok {
		panic("llm: unknown prompt " + name)
	}
	return p
}
