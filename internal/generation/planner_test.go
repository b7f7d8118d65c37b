package generation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
	"aicodegen-backend/internal/textgen"
)

func TestClassifyPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   generation.PromptKind
	}{
		{"Build an e-commerce site for sneakers", generation.PromptKindEcommerce},
		{"Uma LOJA de roupas", generation.PromptKindEcommerce},
		{"admin panel with analytics", generation.PromptKindDashboard},
		{"Relatório de vendas", generation.PromptKindDashboard},
		{"a chat app for friends", generation.PromptKindSocial},
		{"todo app", generation.PromptKindGeneric},
		{"", generation.PromptKindGeneric},
		// earlier rules win
		{"dashboard for my shop", generation.PromptKindEcommerce},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, generation.ClassifyPrompt(tt.prompt))
		})
	}
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, generation.CategoryLogin, generation.CategoryFor("Login screen"))
	assert.Equal(t, generation.CategoryLogin, generation.CategoryFor("Tela de entrar"))
	assert.Equal(t, generation.CategoryDashboard, generation.CategoryFor("Dashboard screen"))
	assert.Equal(t, generation.CategoryCounter, generation.CategoryFor("Contador"))
	assert.Equal(t, generation.CategoryTodoList, generation.CategoryFor("Task list"))
	assert.Equal(t, generation.CategoryGeneric, generation.CategoryFor("Feed screen"))
}

func TestFallbackPlan(t *testing.T) {
	tests := []struct {
		prompt string
		steps  int
	}{
		{"todo app", 4},
		{"online store", 7},
		{"sales dashboard", 6},
		{"social network", 7},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			plan := generation.FallbackPlan(tt.prompt)
			require.Len(t, plan, tt.steps)
			assertValidPlan(t, plan)

			assert.Equal(t, models.StepTypeSetup, plan[0].Type)
			assert.Equal(t, "Login screen", plan[2].Name)
			assert.Equal(t, models.StepTypeOptimization, plan[len(plan)-1].Type)

			assert.Equal(t, plan, generation.FallbackPlan(tt.prompt))
		})
	}
}

func assertValidPlan(t *testing.T, plan []generation.PlannedStep) {
	t.Helper()
	for i, step := range plan {
		assert.Equal(t, i+1, step.Order)
		assert.NotEmpty(t, step.Name)
		assert.NotEmpty(t, step.Description)
		assert.True(t, models.IsValidStepType(step.Type), "invalid type %q", step.Type)
	}
}

func TestParsePlan(t *testing.T) {
	text := "Sure! Here you go:\n```json\n" + `[
  {"name": "Setup", "description": "Init [things]", "type": "SETUP", "order": 1},
  {"name": "", "description": "no name", "type": "CODE", "order": 2},
  {"name": "Bad type", "description": "x", "type": "DEPLOY", "order": 3},
  {"name": "No order", "description": "x", "type": "CODE"},
  {"name": "String order", "description": "x", "type": "CODE", "order": "4"},
  {"name": "Home screen", "description": "Landing page", "type": "SCREEN", "order": 9}
]` + "\n```\nLet me know if you need more. [1]"

	plan, err := generation.ParsePlan(text)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assertValidPlan(t, plan)
	assert.Equal(t, "Setup", plan[0].Name)
	assert.Equal(t, "Init [things]", plan[0].Description)
	assert.Equal(t, "Home screen", plan[1].Name)
	assert.Equal(t, 2, plan[1].Order)
}

func TestParsePlan_Unusable(t *testing.T) {
	for name, text := range map[string]string{
		"no array":       "I cannot help with that.",
		"unbalanced":     `[{"name": "Setup"`,
		"not objects":    `[1, 2, 3]`,
		"all invalid":    `[{"name": "x", "description": "y", "type": "nope", "order": 1}]`,
		"empty array":    `[]`,
		"malformed json": `[{"name": "x",}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := generation.ParsePlan(text)
			assert.Error(t, err)
		})
	}
}

func TestSynthesizePlan(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	t.Run("provider error falls back", func(t *testing.T) {
		p := generation.NewPlanner(textgen.ProviderFunc(func(context.Context, string, textgen.Options) (string, error) {
			return "", errors.New("timeout")
		}), log)
		assert.Equal(t, generation.FallbackPlan("todo app"), p.SynthesizePlan(ctx, "todo app"))
	})

	t.Run("garbage response falls back", func(t *testing.T) {
		p := generation.NewPlanner(textgen.ProviderFunc(func(context.Context, string, textgen.Options) (string, error) {
			return "no idea", nil
		}), log)
		assert.Equal(t, generation.FallbackPlan("my shop"), p.SynthesizePlan(ctx, "my shop"))
	})

	t.Run("disabled provider falls back", func(t *testing.T) {
		p := generation.NewPlanner(nil, log)
		assert.Len(t, p.SynthesizePlan(ctx, "todo app"), 4)
	})

	t.Run("provider plan is used", func(t *testing.T) {
		var prompt string
		p := generation.NewPlanner(textgen.ProviderFunc(func(_ context.Context, in string, _ textgen.Options) (string, error) {
			prompt = in
			return `[{"name":"Setup","description":"d","type":"SETUP","order":1},{"name":"Polish","description":"d","type":"OPTIMIZATION","order":2}]`, nil
		}), log)
		plan := p.SynthesizePlan(ctx, "recipe book")
		require.Len(t, plan, 2)
		assert.Equal(t, "Polish", plan[1].Name)
		assert.Contains(t, prompt, "Request: recipe book")
	})
}
