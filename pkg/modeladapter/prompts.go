package modeladapter

import "github.com/tmc/langchaingo/prompts"

// Templates holds the per-role prompt templates the Orchestrator fills in
// with snapshot and enrichment data before a Call. Using langchaingo's
// templating engine keeps variable substitution and escaping consistent
// across all three roles instead of three separate fmt.Sprintf call sites.
type Templates struct {
	Strategist prompts.PromptTemplate
	Planner    prompts.PromptTemplate
	Validator  prompts.PromptTemplate
}

// DefaultTemplates returns the baseline templates for each role. Callers
// may override any of them (e.g. for localization) before passing
// Templates into the Orchestrator.
func DefaultTemplates() Templates {
	return Templates{
		Strategist: prompts.NewPromptTemplate(
			"You are planning a driver positioning strategy for a rideshare driver near {{.city}}, {{.region}}.\n"+
				"Local time: {{.captured_at}}. Weather: {{.weather}}.\n"+
				"Recommend the highest-value daily and immediate repositioning strategy.",
			[]string{"city", "region", "captured_at", "weather"},
		),
		Planner: prompts.NewPromptTemplate(
			"Given the strategist's guidance below, select up to {{.max_venues}} candidate venues "+
				"from the catalog and justify each one.\n\nStrategist guidance:\n{{.strategy}}\n\n"+
				"Candidate venues:\n{{.venues}}",
			[]string{"max_venues", "strategy", "venues"},
		),
		Validator: prompts.NewPromptTemplate(
			"Review the following venue recommendations for factual consistency with the supplied "+
				"enrichment data and drop any that are stale or contradicted.\n\nRecommendations:\n{{.plan}}\n\n"+
				"Enrichment data:\n{{.enrichment}}",
			[]string{"plan", "enrichment"},
		),
	}
}

// Render formats a template with the given variables and returns any
// templating error unchanged.
func Render(tmpl prompts.PromptTemplate, values map[string]any) (string, error) {
	return tmpl.Format(values)
}
