// Package classifier maps command text to a routing hint. The result steers
// the default provider choice only; it is never a correctness gate.
package classifier

import (
	"regexp"
	"strings"

	"easel-ai/internal/domain"
)

// Simple single-operation commands that a low-latency model handles well:
// creating one basic shape or text, or an absolute move/resize/delete.
var simplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:please\s+)?(?:create|add|draw|make)\s+(?:a|an|one)?\s*(?:\w+\s+){0,2}(?:circle|rectangle|rect|square|ellipse|oval|line|triangle|star|text|label)\b(?:\s+(?:at|@)\s*-?\d+\s*,\s*-?\d+)?\s*$`),
	regexp.MustCompile(`^move\s+(?:object\s+|shape\s+)?#?\d+\s+to\s+-?\d+\s*,\s*-?\d+\s*$`),
	regexp.MustCompile(`^resize\s+(?:object\s+|shape\s+)?#?\d+\s+to\s+\d+\s*(?:x|by)\s*\d+\s*$`),
	regexp.MustCompile(`^(?:delete|remove)\s+(?:object\s+|shape\s+)?#?\d+\s*$`),
}

var actionVerbs = []string{
	"create", "add", "draw", "make", "move", "resize", "delete", "remove",
	"change", "rotate", "duplicate", "copy", "place", "put", "connect",
	"group", "color", "recolor", "scale", "flip",
}

var referentialPronouns = []string{
	"this", "that", "these", "those", "it", "them", "selected", "selection",
}

var compositeComponents = []string{
	"form", "navbar", "nav", "sidebar", "card", "dashboard", "header",
	"footer", "menu", "modal", "table", "login", "signup", "profile",
	"chart", "gallery", "toolbar",
}

var layoutVocabulary = []string{
	"arrange", "align", "grid", "stack", "distribute", "layout", "organize",
	"evenly", "spacing", "row", "column", "rows", "columns", "center",
	"pattern", "spiral",
}

var wordRe = regexp.MustCompile(`[a-z]+`)

// Classify maps command text to a fast-path or complex-path routing hint.
// Pure and deterministic; rules are applied in priority order.
func Classify(text string) domain.Classification {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return domain.ClassFastPath
	}

	for _, p := range simplePatterns {
		if p.MatchString(normalized) {
			return domain.ClassFastPath
		}
	}

	words := wordRe.FindAllString(normalized, -1)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	verbs := 0
	for _, v := range actionVerbs {
		if wordSet[v] {
			verbs++
		}
	}
	if verbs >= 2 {
		return domain.ClassComplexPath
	}
	if verbs == 1 && (wordSet["and"] || wordSet["then"]) {
		return domain.ClassComplexPath
	}

	for _, p := range referentialPronouns {
		if wordSet[p] {
			return domain.ClassComplexPath
		}
	}

	for _, c := range compositeComponents {
		if wordSet[c] {
			return domain.ClassComplexPath
		}
	}

	for _, l := range layoutVocabulary {
		if wordSet[l] {
			return domain.ClassComplexPath
		}
	}

	return domain.ClassFastPath
}
