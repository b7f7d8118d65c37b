package generation

import "strings"

// PromptKind is the coarse classification of a user prompt used by the fallback planner.
type PromptKind string

const (
	PromptKindEcommerce PromptKind = "ecommerce"
	PromptKindDashboard PromptKind = "dashboard"
	PromptKindSocial    PromptKind = "social"
	PromptKindGeneric   PromptKind = "generic"
)

// Category selects the artifact template for a SCREEN step.
type Category string

const (
	CategoryLogin     Category = "login"
	CategoryDashboard Category = "dashboard"
	CategoryCounter   Category = "counter"
	CategoryTodoList  Category = "todolist"
	CategoryGeneric   Category = "generic"
)

type keywordRule[T any] struct {
	keywords []string
	value    T
}

// Rules are evaluated in order; the first rule with a matching keyword wins.
var promptRules = []keywordRule[PromptKind]{
	{keywords: []string{"ecommerce", "e-commerce", "loja", "shop", "store", "produto", "product", "carrinho", "cart"}, value: PromptKindEcommerce},
	{keywords: []string{"dashboard", "painel", "admin", "analytics", "relatório", "report"}, value: PromptKindDashboard},
	{keywords: []string{"social", "rede social", "feed", "chat", "friends", "amigos", "followers"}, value: PromptKindSocial},
}

var categoryRules = []keywordRule[Category]{
	{keywords: []string{"login", "signin", "sign in", "entrar"}, value: CategoryLogin},
	{keywords: []string{"dashboard", "principal"}, value: CategoryDashboard},
	{keywords: []string{"contador", "counter"}, value: CategoryCounter},
	{keywords: []string{"tarefa", "todo", "to-do", "task"}, value: CategoryTodoList},
}

func matchRules[T any](text string, rules []keywordRule[T], def T) T {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.value
			}
		}
	}
	return def
}

// ClassifyPrompt maps a free-text prompt to a PromptKind by case-insensitive keyword match.
func ClassifyPrompt(prompt string) PromptKind {
	return matchRules(prompt, promptRules, PromptKindGeneric)
}

// CategoryFor maps step text to an artifact Category by case-insensitive keyword match.
func CategoryFor(text string) Category {
	return matchRules(text, categoryRules, CategoryGeneric)
}
