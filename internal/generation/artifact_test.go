package generation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
	"aicodegen-backend/internal/textgen"
)

func TestGenerateArtifact(t *testing.T) {
	categories := map[generation.Category]string{
		generation.CategoryLogin:     `type="password"`,
		generation.CategoryDashboard: "initialStats",
		generation.CategoryCounter:   "increment",
		generation.CategoryTodoList:  "completed",
		generation.CategoryGeneric:   "export default function",
		generation.Category("other"): "export default function",
	}
	for category, marker := range categories {
		t.Run(string(category), func(t *testing.T) {
			a := generation.GenerateArtifact("My screen", "Something", category)
			assert.Equal(t, "MyScreen", a.Name)
			assert.Contains(t, a.SourceCode, marker)
			assert.Contains(t, a.SourceCode, "MyScreen")

			require.Len(t, a.Files, 2)
			assert.Equal(t, "MyScreen.tsx", a.Files[0].Name)
			assert.Equal(t, a.SourceCode, a.Files[0].Content)
			assert.Equal(t, "index.ts", a.Files[1].Name)
			assert.Equal(t, "export { default } from './MyScreen';\n", a.Files[1].Content)

			assert.Equal(t, a, generation.GenerateArtifact("My screen", "Something", category))
		})
	}
}

func TestGenerateArtifact_EscapesDescription(t *testing.T) {
	a := generation.GenerateArtifact("Home", "Shows {user} <b>stats</b>", generation.CategoryGeneric)
	assert.NotContains(t, a.SourceCode, "{user}")
	assert.NotContains(t, a.SourceCode, "<b>")
	assert.Contains(t, a.SourceCode, "&#123;user&#125;")
}

func TestComponentName(t *testing.T) {
	tests := map[string]string{
		"Login screen":       "LoginScreen",
		"shopping-cart page": "ShoppingCartPage",
		"  ":                 "GeneratedComponent",
		"404 page":           "Component404Page",
		"Tela de Início":     "TelaDeInício",
	}
	for in, want := range tests {
		assert.Equal(t, want, generation.ComponentName(in), in)
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "login-screen", generation.Slug("Login screen"))
	assert.Equal(t, "shopping-cart", generation.Slug("  Shopping -- Cart! "))
	assert.Equal(t, "", generation.Slug("!!!"))
}

func TestScreenMetadataRoundTrip(t *testing.T) {
	a := generation.GenerateArtifact("Login screen", "Sign in", generation.CategoryLogin)
	raw, err := generation.EncodeScreenMetadata(a, true)
	require.NoError(t, err)

	// files is stored as a JSON string inside the metadata object
	assert.Contains(t, raw, `"files":"[{`)

	decoded, responsive, err := generation.DecodeScreenMetadata(raw)
	require.NoError(t, err)
	assert.True(t, responsive)
	assert.Equal(t, a, decoded)

	_, _, err = generation.DecodeScreenMetadata("{")
	assert.Error(t, err)
	_, _, err = generation.DecodeScreenMetadata(`{"files":"not json"}`)
	assert.Error(t, err)
}

func TestScreenPlacements(t *testing.T) {
	first := generation.ScreenPlacements(0)
	require.Len(t, first, 3)
	assert.Equal(t, generation.Placement{Type: models.ScreenTypeDesktop, Label: "Desktop", Width: 1440, Height: 900, X: 0, Y: 0}, first[0])
	assert.Equal(t, generation.Placement{Type: models.ScreenTypeTablet, Label: "Tablet", Width: 768, Height: 1024, X: 1540, Y: 0}, first[1])
	assert.Equal(t, generation.Placement{Type: models.ScreenTypeMobile, Label: "Mobile", Width: 375, Height: 812, X: 2408, Y: 0}, first[2])

	second := generation.ScreenPlacements(1)
	for i, p := range second {
		assert.Equal(t, 1124, p.Y)
		assert.Equal(t, first[i].X, p.X)
		// no vertical overlap with the previous band
		assert.GreaterOrEqual(t, p.Y, first[i].Y+first[i].Height)
	}
}

func TestComponentGenerator(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	t.Run("provider component is parsed and cached", func(t *testing.T) {
		calls := 0
		provider := textgen.ProviderFunc(func(_ context.Context, prompt string, _ textgen.Options) (string, error) {
			calls++
			assert.Contains(t, prompt, "Component name: PriceTag")
			return "```json\n" + `{"name":"price tag","code":"export const PriceTag = () => <span>{'$'}</span>;","imports":["react"],"exports":["PriceTag"]}` + "\n```", nil
		})
		g, err := generation.NewComponentGenerator(provider, 8, log)
		require.NoError(t, err)

		a := g.Generate(ctx, "Price tag", "Shows a price", "shop")
		assert.Equal(t, "PriceTag", a.Name)
		assert.True(t, strings.HasPrefix(a.SourceCode, "export const PriceTag"))
		require.Len(t, a.Files, 2)
		assert.Equal(t, "export { PriceTag } from './PriceTag';\n", a.Files[1].Content)

		assert.Equal(t, a, g.Generate(ctx, "Price tag", "Shows a price", "shop"))
		assert.Equal(t, 1, calls)

		g.Generate(ctx, "Price tag", "Shows a price", "other")
		assert.Equal(t, 2, calls)
	})

	t.Run("failures fall back and are not cached", func(t *testing.T) {
		calls := 0
		provider := textgen.ProviderFunc(func(context.Context, string, textgen.Options) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("quota exceeded")
			}
			return `{"name":"Widget","code":""}`, nil
		})
		g, err := generation.NewComponentGenerator(provider, 0, log)
		require.NoError(t, err)

		a := g.Generate(ctx, "Widget", "Does <things>", "")
		assert.Equal(t, "Widget", a.Name)
		assert.Contains(t, a.SourceCode, "Does &lt;things&gt;")

		b := g.Generate(ctx, "Widget", "Does <things>", "")
		assert.Equal(t, a, b)
		assert.Equal(t, 2, calls)
	})
}
