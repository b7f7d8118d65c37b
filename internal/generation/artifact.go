package generation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"aicodegen-backend/internal/models"
)

// Artifact is the generated code for one component.
type Artifact struct {
	Name       string
	SourceCode string
	Files      []models.ArtifactFile
}

type templateData struct {
	Name        string
	Description string
}

var jsxEscaper = strings.NewReplacer("{", "&#123;", "}", "&#125;", "<", "&lt;", ">", "&gt;")

var artifactTemplates = func() map[Category]*template.Template {
	funcs := template.FuncMap{
		"jsx": jsxEscaper.Replace,
		"js":  template.JSEscapeString,
	}
	out := make(map[Category]*template.Template, len(templateSources))
	for category, src := range templateSources {
		out[category] = template.Must(template.New(string(category)).Delims("[[", "]]").Funcs(funcs).Parse(src))
	}
	return out
}()

// GenerateArtifact renders the template for category. It is deterministic and
// always returns a usable artifact.
func GenerateArtifact(componentName, description string, category Category) Artifact {
	name := ComponentName(componentName)
	tmpl, ok := artifactTemplates[category]
	if !ok {
		tmpl = artifactTemplates[CategoryGeneric]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{Name: name, Description: strings.TrimSpace(description)}); err != nil {
		return minimalArtifact(name, description)
	}
	return newArtifact(name, buf.String())
}

func newArtifact(name, source string) Artifact {
	return Artifact{
		Name:       name,
		SourceCode: source,
		Files: []models.ArtifactFile{
			{Name: name + ".tsx", Content: source},
			{Name: "index.ts", Content: fmt.Sprintf("export { default } from './%s';\n", name)},
		},
	}
}

// minimalArtifact is the inline component used when nothing better is available.
func minimalArtifact(name, description string) Artifact {
	name = ComponentName(name)
	source := fmt.Sprintf(`import React from 'react';

interface %[1]sProps {
  className?: string;
}

export default function %[1]s({ className }: %[1]sProps) {
  return (
    <div className={className}>
      <h2>%[1]s</h2>
      <p>%[2]s</p>
    </div>
  );
}
`, name, jsxEscaper.Replace(strings.TrimSpace(description)))
	return newArtifact(name, source)
}

// ComponentName converts free text such as "Login screen" into "LoginScreen".
func ComponentName(text string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteString("Component")
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "GeneratedComponent"
	}
	return b.String()
}

// Slug converts free text into a lowercase route segment.
func Slug(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
