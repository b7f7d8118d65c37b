package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
	"aicodegen-backend/internal/textgen"
)

// PlannedStep is one entry of a synthesized plan. Order is 1-based and contiguous.
type PlannedStep struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Order       int    `json:"order"`
}

var errNoPlan = errors.New("no plan array in response")

const planInstruction = `You are planning the generation of a web application.
Break the following request into an ordered list of generation steps.
Answer with a JSON array only. Each element must be an object with the fields
"name" (short title), "description" (one sentence), "type" (one of SETUP, CODE, SCREEN, OPTIMIZATION)
and "order" (number, starting at 1).
Use SCREEN for every user-facing screen and finish with an OPTIMIZATION step.

Request: %s`

// Planner turns prompts into ordered step plans.
type Planner struct {
	provider textgen.Provider
	log      *logger.Logger
}

func NewPlanner(provider textgen.Provider, log *logger.Logger) *Planner {
	if provider == nil {
		provider = textgen.Disabled{}
	}
	return &Planner{
		provider: provider,
		log:      log.With("component", "Planner"),
	}
}

// SynthesizePlan asks the provider for a plan and falls back to the rule-based
// plan when the provider fails or returns nothing usable. It never fails.
func (p *Planner) SynthesizePlan(ctx context.Context, prompt string) []PlannedStep {
	text, err := p.provider.Complete(ctx, fmt.Sprintf(planInstruction, prompt), textgen.DefaultOptions)
	if err != nil {
		p.log.Warn("Plan provider failed, using fallback plan", "error", err)
		return FallbackPlan(prompt)
	}
	steps, err := ParsePlan(text)
	if err != nil {
		p.log.Warn("Plan response unusable, using fallback plan", "error", err)
		return FallbackPlan(prompt)
	}
	return steps
}

// ParsePlan extracts the first JSON array from text, drops invalid entries and
// renumbers the survivors from 1.
func ParsePlan(text string) ([]PlannedStep, error) {
	raw, ok := extractBalanced(text, '[', ']')
	if !ok {
		return nil, errNoPlan
	}
	var candidates []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	steps := make([]PlannedStep, 0, len(candidates))
	for _, c := range candidates {
		step, ok := validateCandidate(c)
		if !ok {
			continue
		}
		step.Order = len(steps) + 1
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, errNoPlan
	}
	return steps, nil
}

func validateCandidate(c map[string]interface{}) (PlannedStep, bool) {
	name, _ := c["name"].(string)
	description, _ := c["description"].(string)
	stepType, _ := c["type"].(string)
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return PlannedStep{}, false
	}
	if !models.IsValidStepType(stepType) {
		return PlannedStep{}, false
	}
	if _, ok := c["order"].(float64); !ok {
		return PlannedStep{}, false
	}
	return PlannedStep{Name: name, Description: description, Type: stepType}, true
}

type stepTemplate struct {
	name        string
	description string
	stepType    string
}

var baseSteps = []stepTemplate{
	{"Setup", "Create the project structure, dependencies and routing", models.StepTypeSetup},
	{"Base components", "Generate shared layout, buttons, inputs and theme tokens", models.StepTypeCode},
	{"Login screen", "Build the authentication screen with email and password", models.StepTypeScreen},
}

var kindSteps = map[PromptKind][]stepTemplate{
	PromptKindEcommerce: {
		{"Product catalog screen", "List products with images, prices and filters", models.StepTypeScreen},
		{"Shopping cart screen", "Show selected items, quantities and totals", models.StepTypeScreen},
		{"Checkout flow", "Implement address, payment and order confirmation logic", models.StepTypeCode},
	},
	PromptKindDashboard: {
		{"Dashboard screen", "Summarize key metrics in stat tiles", models.StepTypeScreen},
		{"Charts and reports", "Add chart components and report data hooks", models.StepTypeCode},
	},
	PromptKindSocial: {
		{"Feed screen", "Show the timeline of posts with likes and comments", models.StepTypeScreen},
		{"Profile screen", "Display user details, followers and posts", models.StepTypeScreen},
		{"Messaging", "Implement conversations and message state", models.StepTypeCode},
	},
}

var optimizationStep = stepTemplate{"Optimization", "Review performance, accessibility and responsiveness", models.StepTypeOptimization}

// FallbackPlan builds the deterministic plan for prompt without any network call.
func FallbackPlan(prompt string) []PlannedStep {
	templates := make([]stepTemplate, 0, len(baseSteps)+4)
	templates = append(templates, baseSteps...)
	templates = append(templates, kindSteps[ClassifyPrompt(prompt)]...)
	templates = append(templates, optimizationStep)

	steps := make([]PlannedStep, len(templates))
	for i, t := range templates {
		steps[i] = PlannedStep{
			Name:        t.name,
			Description: t.description,
			Type:        t.stepType,
			Order:       i + 1,
		}
	}
	return steps
}
