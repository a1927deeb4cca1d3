// Package advisor turns vehicle data into assistant prompts and parses the
// replies. Every call degrades to a deterministic answer when the provider
// fails, so callers never see assistant errors.
package advisor

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/llm"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
)

const (
	rulesSystemPrompt  = "You are an automotive maintenance expert who gives precise, personalized recommendations."
	healthSystemPrompt = "You are an expert mechanic who analyzes vehicle health and gives practical recommendations."

	// ChatFallback is the reply used when the assistant is unavailable.
	ChatFallback = "Sorry, something went wrong while processing your request. Please try again."

	defaultRulesExplanation = "Using the standard recommended intervals for your type of vehicle."
	defaultHealthSummary    = "Your vehicle is in adequate overall condition. Keep following the preventive maintenance schedule."
)

var defaultRecommendations = []string{
	"Keep your scheduled services up to date",
	"Check fluid levels regularly",
	"Check tire pressure weekly",
}

// Advisor wraps a Completer with the maintenance prompts.
type Advisor struct {
	llm    llm.Completer
	logger log.FieldLogger
}

// New creates an Advisor. A nil logger uses the standard logger.
func New(completer llm.Completer, logger log.FieldLogger) *Advisor {
	if completer == nil {
		completer = llm.Disabled{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Advisor{llm: completer, logger: logger}
}

type suggestedInterval struct {
	Months int `json:"months"`
	Km     int `json:"km"`
}

type rulesReply struct {
	Oil         *suggestedInterval `json:"oil"`
	Tires       *suggestedInterval `json:"tires"`
	Brakes      *suggestedInterval `json:"brakes"`
	Battery     *suggestedInterval `json:"battery"`
	Explanation string             `json:"explanation"`
}

func (r rulesReply) byCategory() map[maintenance.Category]*suggestedInterval {
	return map[maintenance.Category]*suggestedInterval{
		maintenance.CategoryOil:     r.Oil,
		maintenance.CategoryTires:   r.Tires,
		maintenance.CategoryBrakes:  r.Brakes,
		maintenance.CategoryBattery: r.Battery,
	}
}

// SuggestRules asks for personalized intervals. Categories the reply omits
// or gets wrong keep their default rule; an unusable reply yields the
// default table.
func (a *Advisor) SuggestRules(ctx context.Context, v maintenance.Vehicle) models.RuleSuggestion {
	prompt := fmt.Sprintf(`Based on the vehicle below, suggest personalized maintenance intervals.

Vehicle: %s %s %d
Current mileage: %d km
Usage: %s

Give recommended intervals for:
1. Oil change (months and km)
2. Tire replacement (months and km)
3. Brake pad replacement (months and km)
4. Battery replacement (months)

Reply ONLY with JSON in this format:
{
  "oil": { "months": X, "km": Y },
  "tires": { "months": X, "km": Y },
  "brakes": { "months": X, "km": Y },
  "battery": { "months": X, "km": 0 },
  "explanation": "Short explanation of the recommendations"
}`, v.Kind, v.Model, v.Year, v.CurrentDistance, v.Usage)

	logger := a.logger.WithField("vehicle_id", v.ID)
	reply, err := a.llm.Complete(ctx, llm.Request{
		System:   rulesSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		logger.WithError(err).Warn("rule suggestion failed, using defaults")
		return defaultSuggestion()
	}

	var parsed rulesReply
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		logger.WithError(err).Warn("rule suggestion unparseable, using defaults")
		return defaultSuggestion()
	}

	out := models.RuleSuggestion{Explanation: strings.TrimSpace(parsed.Explanation)}
	suggested := 0
	for _, c := range maintenance.Categories() {
		iv := parsed.byCategory()[c]
		if iv == nil || iv.Months <= 0 || iv.Km < 0 {
			out.Rules = append(out.Rules, maintenance.DefaultRule(c))
			continue
		}
		out.Rules = append(out.Rules, maintenance.SuggestedRule(c, maintenance.Interval{Months: iv.Months, Distance: iv.Km}))
		suggested++
	}
	if suggested == 0 {
		logger.Warn("rule suggestion had no usable intervals, using defaults")
		return defaultSuggestion()
	}
	if out.Explanation == "" {
		out.Explanation = defaultRulesExplanation
	}
	return out
}

func defaultSuggestion() models.RuleSuggestion {
	rules := make([]maintenance.Rule, 0, len(maintenance.Categories()))
	for _, c := range maintenance.Categories() {
		rules = append(rules, maintenance.DefaultRule(c))
	}
	return models.RuleSuggestion{Rules: rules, Explanation: defaultRulesExplanation}
}

type healthReply struct {
	OverallHealth   string   `json:"overallHealth"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	AttentionPoints []string `json:"attentionPoints"`
}

// AnalyzeHealth asks for an overall assessment of the scheduled items.
func (a *Advisor) AnalyzeHealth(ctx context.Context, v maintenance.Vehicle, items []maintenance.Item) models.HealthReport {
	var status strings.Builder
	for _, it := range items {
		fmt.Fprintf(&status, "- %s: %s (%d days or %d km remaining)\n", it.Name, it.Status, it.DaysRemaining, it.DistanceRemaining)
	}
	prompt := fmt.Sprintf(`Analyze the overall health of this vehicle and give recommendations:

Vehicle: %s %s %d
Mileage: %d km
Usage: %s

Maintenance status:
%s
Reply with a complete analysis in JSON:
{
  "overallHealth": "excellent|good|attention|critical",
  "summary": "Overall summary of the vehicle health",
  "recommendations": ["recommendation 1", "recommendation 2"],
  "attentionPoints": ["attention point 1", "attention point 2"]
}`, v.Kind, v.Model, v.Year, v.CurrentDistance, v.Usage, status.String())

	logger := a.logger.WithField("vehicle_id", v.ID)
	reply, err := a.llm.Complete(ctx, llm.Request{
		System:   healthSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		logger.WithError(err).Warn("health analysis failed, using summary")
		return FallbackHealth(items)
	}

	var parsed healthReply
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		logger.WithError(err).Warn("health analysis unparseable, using summary")
		return FallbackHealth(items)
	}

	report := models.HealthReport{
		Summary:         strings.TrimSpace(parsed.Summary),
		Recommendations: nonEmpty(parsed.Recommendations),
		AttentionPoints: nonEmpty(parsed.AttentionPoints),
	}
	h, ok := maintenance.ParseHealth(strings.ToLower(strings.TrimSpace(parsed.OverallHealth)))
	if !ok {
		h = maintenance.OverallHealth(items)
	}
	report.OverallHealth = h
	if report.Summary == "" {
		report.Summary = defaultHealthSummary
	}
	return report
}

// FallbackHealth derives a report from item statuses alone.
func FallbackHealth(items []maintenance.Item) models.HealthReport {
	points := []string{}
	for _, it := range items {
		if it.Status != maintenance.StatusNormal {
			points = append(points, fmt.Sprintf("%s needs attention soon", it.Name))
		}
	}
	return models.HealthReport{
		OverallHealth:   maintenance.OverallHealth(items),
		Summary:         defaultHealthSummary,
		Recommendations: append([]string(nil), defaultRecommendations...),
		AttentionPoints: points,
	}
}

// Chat answers the latest user message with the vehicle as context.
func (a *Advisor) Chat(ctx context.Context, v maintenance.Vehicle, conversation []llm.Message) string {
	system := fmt.Sprintf(`You are an experienced and helpful mechanic called "Mechanic 24h".
You are helping the owner of a %s %s %d with %d km.
Give clear, practical and friendly answers about car maintenance.
Be concise but complete.`, v.Kind, v.Model, v.Year, v.CurrentDistance)

	reply, err := a.llm.Complete(ctx, llm.Request{System: system, Messages: conversation})
	if err != nil {
		a.logger.WithError(err).WithField("vehicle_id", v.ID).Warn("chat completion failed")
		return ChatFallback
	}
	return reply
}

func nonEmpty(in []string) []string {
	out := []string{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
