package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"google.golang.org/genai"
)

// Answers is the questionnaire content a plan is written from.
type Answers struct {
	Goal       string
	Challenges string
	Lifestyle  string
	Dietary    string
	Conditions string
}

// Plan is a titled list of sections rendered into the assessment PDF.
type Plan struct {
	Title    string
	Sections []PlanSection
}

type PlanSection struct {
	Heading string
	Body    string
}

// PlanWriter drafts a wellness plan with Gemini text generation.
type PlanWriter struct {
	apiKey string
	model  string
}

func NewPlanWriter(apiKey, model string) *PlanWriter {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &PlanWriter{apiKey: apiKey, model: model}
}

const planPrompt = `You are the nutrition concierge of Table d'Adrian, a fine-dining wellness club.
Write a concise personal wellness plan from the questionnaire below.
Return exactly four sections, each starting with a line "## <heading>":
## Nutrition, ## Daily rhythm, ## Addressing challenges, ## Next steps.
Plain sentences only, no markdown besides the headings, at most 120 words per section.
Do not give medical diagnoses; suggest consulting a professional for listed conditions.`

// Write returns the model's plan, or the static plan when generation is unavailable.
func (w *PlanWriter) Write(ctx context.Context, a Answers) Plan {
	rid := genctx.RID(ctx)
	if w == nil || w.apiKey == "" {
		return StaticPlan(a)
	}
	start := time.Now()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: w.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		log.Printf("[plan] rid=%s stage=client_init err=%v", rid, err)
		return StaticPlan(a)
	}
	parts := []*genai.Part{
		genai.NewPartFromText(planPrompt),
		genai.NewPartFromText(fmt.Sprintf("Goal: %s\nChallenges: %s\nLifestyle: %s\nDietary preferences: %s\nConditions: %s",
			a.Goal, a.Challenges, a.Lifestyle, a.Dietary, orNone(a.Conditions))),
	}
	temp := float32(0.3)
	res, err := client.Models.GenerateContent(ctx, w.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, &genai.GenerateContentConfig{Temperature: &temp})
	if err != nil {
		log.Printf("[plan] rid=%s stage=gemini_fail model=%s err=%v", rid, w.model, err)
		return StaticPlan(a)
	}
	plan, err := ParsePlan(res.Text())
	if err != nil {
		log.Printf("[plan] rid=%s stage=parse_fail err=%v", rid, err)
		return StaticPlan(a)
	}
	log.Printf("[plan] rid=%s stage=ok sections=%d ms=%d", rid, len(plan.Sections), time.Since(start).Milliseconds())
	return plan
}

var ErrEmptyPlan = errors.New("plan has no sections")

// ParsePlan splits "## heading" blocks into sections.
func ParsePlan(text string) (Plan, error) {
	plan := Plan{Title: "Your Table d'Adrian Wellness Plan"}
	cur := -1
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if h, ok := strings.CutPrefix(trimmed, "##"); ok {
			plan.Sections = append(plan.Sections, PlanSection{Heading: strings.TrimSpace(strings.TrimLeft(h, "#"))})
			cur = len(plan.Sections) - 1
			continue
		}
		if cur < 0 || trimmed == "" {
			continue
		}
		if plan.Sections[cur].Body != "" {
			plan.Sections[cur].Body += " "
		}
		plan.Sections[cur].Body += trimmed
	}
	kept := plan.Sections[:0]
	for _, s := range plan.Sections {
		if s.Heading != "" && s.Body != "" {
			kept = append(kept, s)
		}
	}
	plan.Sections = kept
	if len(plan.Sections) == 0 {
		return Plan{}, ErrEmptyPlan
	}
	return plan, nil
}

// StaticPlan is built from the answers alone.
func StaticPlan(a Answers) Plan {
	return Plan{
		Title: "Your Table d'Adrian Wellness Plan",
		Sections: []PlanSection{
			{Heading: "Your goal", Body: a.Goal},
			{Heading: "Nutrition", Body: "Build each plate around vegetables, a palm-sized portion of protein and slow carbohydrates. Respect your preferences: " + a.Dietary + "."},
			{Heading: "Daily rhythm", Body: "Keep regular meal times, hydrate before coffee and plan one unhurried, screen-free meal a day. Lifestyle noted: " + a.Lifestyle + "."},
			{Heading: "Addressing challenges", Body: "Start with one small change per week for: " + a.Challenges + "."},
			{Heading: "Next steps", Body: "Review this plan in two weeks." + conditionsNote(a.Conditions)},
		},
	}
}

func conditionsNote(c string) string {
	if strings.TrimSpace(c) == "" {
		return ""
	}
	return " Discuss these conditions with a health professional before changing your diet: " + c + "."
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
