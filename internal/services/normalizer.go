package services

import (
	"regexp"
	"strings"
)

type normalizationRule struct {
	pattern   *regexp.Regexp
	canonical string
	// mask is removed from the input before pattern runs
	mask *regexp.Regexp
}

func (r normalizationRule) matches(s string) bool {
	if r.mask != nil {
		s = r.mask.ReplaceAllString(s, "")
	}
	return r.pattern.MatchString(s)
}

// Rules are checked in order and the first hit wins, so .NET runs before C#. The bare
// Java rule masks out JavaScript first, which makes "JavaFX" Java and leaves
// "Frontend (JavaScript)" alone.
var technologyRules = []normalizationRule{
	{pattern: regexp.MustCompile(`(?i)\.net\b`), canonical: ".NET"},
	{pattern: regexp.MustCompile(`(?i)^dotnet`), canonical: ".NET"},
	{pattern: regexp.MustCompile(`(?i)^javascript`), canonical: "JavaScript"},
	{pattern: regexp.MustCompile(`(?i)^js\b`), canonical: "JavaScript"},
	{pattern: regexp.MustCompile(`(?i)^typescript`), canonical: "TypeScript"},
	{pattern: regexp.MustCompile(`(?i)^ts\b`), canonical: "TypeScript"},
	{pattern: regexp.MustCompile(`(?i)^java\d`), canonical: "Java"},
	{pattern: regexp.MustCompile(`(?i)java`), canonical: "Java", mask: regexp.MustCompile(`(?i)javascript`)},
	{pattern: regexp.MustCompile(`(?i)^python`), canonical: "Python"},
	{pattern: regexp.MustCompile(`(?i)^c#`), canonical: "C#"},
	{pattern: regexp.MustCompile(`(?i)^csharp`), canonical: "C#"},
	{pattern: regexp.MustCompile(`(?i)\breact`), canonical: "React"},
	{pattern: regexp.MustCompile(`(?i)^angular`), canonical: "Angular"},
	{pattern: regexp.MustCompile(`(?i)^vue`), canonical: "Vue"},
	{pattern: regexp.MustCompile(`(?i)^spring\b`), canonical: "Spring"},
	{pattern: regexp.MustCompile(`(?i)^node(\.?js)?\b`), canonical: "Node.js"},
	{pattern: regexp.MustCompile(`(?i)^sql\b`), canonical: "SQL"},
	{pattern: regexp.MustCompile(`(?i)sql$`), canonical: "SQL"},
	{pattern: regexp.MustCompile(`(?i)^docker`), canonical: "Docker"},
	{pattern: regexp.MustCompile(`(?i)^kubernetes`), canonical: "Kubernetes"},
	{pattern: regexp.MustCompile(`(?i)^k8s$`), canonical: "Kubernetes"},
	{pattern: regexp.MustCompile(`(?i)^git`), canonical: "Git"},
	{pattern: regexp.MustCompile(`(?i)^golang`), canonical: "Go"},
	{pattern: regexp.MustCompile(`(?i)^go\b`), canonical: "Go"},
}

// NormalizeTechnology maps a free-text skill name to its canonical form. Unknown names
// come back trimmed and blank input comes back untouched.
func NormalizeTechnology(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	for _, rule := range technologyRules {
		if rule.matches(trimmed) {
			return rule.canonical
		}
	}
	return trimmed
}
