package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/textgen"
)

const componentInstruction = `Write a single React function component in TypeScript.
Component name: %s
Description: %s
%s
Answer with one JSON object only, with the fields "name" (string), "code" (full source of the file),
"imports" (array of module names) and "exports" (array of exported identifiers).`

type componentResponse struct {
	Name    string   `json:"name"`
	Code    string   `json:"code"`
	Imports []string `json:"imports"`
	Exports []string `json:"exports"`
}

// ComponentGenerator produces components through the text-generation provider,
// falling back to a minimal inline component. Successful results are cached.
type ComponentGenerator struct {
	provider textgen.Provider
	cache    *lru.Cache[string, Artifact]
	log      *logger.Logger
}

func NewComponentGenerator(provider textgen.Provider, cacheSize int, log *logger.Logger) (*ComponentGenerator, error) {
	if provider == nil {
		provider = textgen.Disabled{}
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, Artifact](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create component cache: %w", err)
	}
	return &ComponentGenerator{
		provider: provider,
		cache:    cache,
		log:      log.With("component", "ComponentGenerator"),
	}, nil
}

// Generate never fails; provider errors degrade to the minimal component.
func (g *ComponentGenerator) Generate(ctx context.Context, name, description, projectContext string) Artifact {
	key := name + "\x00" + description + "\x00" + projectContext
	if cached, ok := g.cache.Get(key); ok {
		return cached
	}

	contextLine := ""
	if strings.TrimSpace(projectContext) != "" {
		contextLine = "Project context: " + projectContext
	}
	text, err := g.provider.Complete(ctx, fmt.Sprintf(componentInstruction, ComponentName(name), description, contextLine), textgen.DefaultOptions)
	if err != nil {
		g.log.Warn("Component provider failed, using inline component", "name", name, "error", err)
		return minimalArtifact(name, description)
	}

	artifact, err := parseComponent(text, name)
	if err != nil {
		g.log.Warn("Component response unusable, using inline component", "name", name, "error", err)
		return minimalArtifact(name, description)
	}
	g.cache.Add(key, artifact)
	return artifact
}

func parseComponent(text, fallbackName string) (Artifact, error) {
	raw, ok := extractBalanced(text, '{', '}')
	if !ok {
		return Artifact{}, fmt.Errorf("no component object in response")
	}
	var resp componentResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Artifact{}, fmt.Errorf("failed to parse component: %w", err)
	}
	if strings.TrimSpace(resp.Code) == "" {
		return Artifact{}, fmt.Errorf("component code is empty")
	}

	name := resp.Name
	if strings.TrimSpace(name) == "" {
		name = fallbackName
	}
	name = ComponentName(name)

	artifact := newArtifact(name, resp.Code)
	if len(resp.Exports) > 0 {
		artifact.Files[1].Content = fmt.Sprintf("export { %s } from './%s';\n", strings.Join(resp.Exports, ", "), name)
	}
	return artifact, nil
}
