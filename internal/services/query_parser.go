package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"alfredoptarigan/rag-candidates/internal/models"
)

type IntentKeywords struct {
	Intent   models.QueryIntent
	Keywords []string
}

type SeniorityToken struct {
	Token string
	Level models.SeniorityLevel
}

type TechnologySynonym struct {
	Token     string
	Canonical string
}

// QueryParsingConfig holds the lookup tables used by QueryParser. Every table is an
// ordered slice: the first entry that matches wins.
type QueryParsingConfig struct {
	Intents            []IntentKeywords
	SeniorityTokens    []SeniorityToken
	TechnologySynonyms []TechnologySynonym
	ExperiencePatterns []string
}

func DefaultQueryParsingConfig() QueryParsingConfig {
	return QueryParsingConfig{
		Intents: []IntentKeywords{
			{models.IntentFindBest, []string{"best", "top", "most qualified", "ideal", "perfect", "strongest"}},
			{models.IntentListAll, []string{"list", "all", "show me", "find all", "get all"}},
			{models.IntentCompare, []string{"compare", "comparison", "versus", "vs", "difference between"}},
			{models.IntentExplain, []string{"explain", "why", "how", "what makes", "reasoning"}},
		},
		SeniorityTokens: []SeniorityToken{
			{"intern", models.SeniorityIntern},
			{"internship", models.SeniorityIntern},
			{"trainee", models.SeniorityIntern},
			{"junior", models.SeniorityJunior},
			{"jr", models.SeniorityJunior},
			{"entry level", models.SeniorityJunior},
			{"entry-level", models.SeniorityJunior},
			{"mid", models.SeniorityMid},
			{"mid-level", models.SeniorityMid},
			{"intermediate", models.SeniorityMid},
			{"senior", models.SenioritySenior},
			{"sr", models.SenioritySenior},
			{"advanced", models.SenioritySenior},
			{"lead", models.SeniorityLead},
			{"tech lead", models.SeniorityLead},
			{"team lead", models.SeniorityLead},
			{"technical lead", models.SeniorityLead},
			{"principal", models.SeniorityPrincipal},
			{"staff engineer", models.SeniorityPrincipal},
			{"staff", models.SeniorityStaff},
			{"architect", models.SeniorityStaff},
		},
		TechnologySynonyms: []TechnologySynonym{
			{"js", "JavaScript"},
			{"javascript", "JavaScript"},
			{"ts", "TypeScript"},
			{"typescript", "TypeScript"},
			{"py", "Python"},
			{"python", "Python"},
			{"k8s", "Kubernetes"},
			{"react", "React"},
			{"reactjs", "React"},
			{"vue", "Vue"},
			{"vuejs", "Vue"},
			{"angular", "Angular"},
			{"angularjs", "Angular"},
			{"node", "Node.js"},
			{"nodejs", "Node.js"},
			{"node.js", "Node.js"},
			{"dotnet", ".NET"},
			{".net", ".NET"},
			{"asp.net", ".NET"},
			{"csharp", "C#"},
			{"c#", "C#"},
			{"java", "Java"},
			{"golang", "Go"},
			{"postgres", "PostgreSQL"},
			{"postgresql", "PostgreSQL"},
			{"mongo", "MongoDB"},
			{"mongodb", "MongoDB"},
			{"docker", "Docker"},
			{"kubernetes", "Kubernetes"},
			{"aws", "AWS"},
			{"azure", "Azure"},
			{"gcp", "Google Cloud"},
		},
		ExperiencePatterns: []string{
			`(?i)(\d+)\+?\s*(?:years?|yrs?)`,
			`(?i)at least (\d+)\s*(?:years?|yrs?)`,
			`(?i)minimum (\d+)\s*(?:years?|yrs?)`,
			`(?i)min (\d+)\s*(?:years?|yrs?)`,
			`(?i)(\d+)\s*(?:years?|yrs?)\s*(?:of\s*)?(?:experience|exp)`,
		},
	}
}

type technologyPattern struct {
	re        *regexp.Regexp
	canonical string
}

// QueryParser turns question text into a models.ParsedQuery. It is safe for concurrent use.
type QueryParser struct {
	intents     []IntentKeywords
	seniority   []SeniorityToken
	technology  []technologyPattern
	experiences []*regexp.Regexp
}

// NewQueryParser compiles every pattern up front. Malformed experience patterns panic,
// matching regexp.MustCompile.
func NewQueryParser(cfg QueryParsingConfig) *QueryParser {
	p := &QueryParser{
		intents:   cfg.Intents,
		seniority: cfg.SeniorityTokens,
	}

	for _, syn := range cfg.TechnologySynonyms {
		token := strings.ToLower(strings.TrimSpace(syn.Token))
		if token == "" {
			continue
		}
		// Any non-alphanumeric rune is a boundary so "c#" and "node.js" match. A dot on the
		// left is not, which keeps "js" from firing inside "node.js".
		re := regexp.MustCompile(`(?:^|[^a-z0-9.])` + regexp.QuoteMeta(token) + `(?:$|[^a-z0-9])`)
		p.technology = append(p.technology, technologyPattern{re: re, canonical: syn.Canonical})
	}

	for _, pattern := range cfg.ExperiencePatterns {
		p.experiences = append(p.experiences, regexp.MustCompile(pattern))
	}

	return p
}

func (p *QueryParser) Parse(text string) models.ParsedQuery {
	lower := strings.ToLower(text)
	return models.ParsedQuery{
		QueryText:            text,
		QueryIntent:          p.classifyIntent(lower),
		RequiredTechnologies: p.matchTechnologies(lower),
		MinSeniorityLevel:    p.matchSeniority(lower),
		MinYearsExperience:   p.parseExperience(text),
	}
}

func (p *QueryParser) classifyIntent(lower string) models.QueryIntent {
	for _, group := range p.intents {
		for _, kw := range group.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return group.Intent
			}
		}
	}
	return models.IntentGeneral
}

func (p *QueryParser) matchTechnologies(lower string) []string {
	seen := make(map[string]struct{})
	techs := []string{}
	for _, tp := range p.technology {
		if !tp.re.MatchString(lower) {
			continue
		}
		if _, ok := seen[tp.canonical]; ok {
			continue
		}
		seen[tp.canonical] = struct{}{}
		techs = append(techs, tp.canonical)
	}
	sort.Strings(techs)
	return techs
}

func (p *QueryParser) matchSeniority(lower string) *models.SeniorityLevel {
	for _, st := range p.seniority {
		if strings.Contains(lower, strings.ToLower(st.Token)) {
			level := st.Level
			return &level
		}
	}
	return nil
}

func (p *QueryParser) parseExperience(text string) *int {
	for _, re := range p.experiences {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if years, err := strconv.Atoi(m[1]); err == nil {
			return &years
		}
	}
	return nil
}

// IsLeadershipQuery reports whether leadership signals should count toward ranking.
func IsLeadershipQuery(q models.ParsedQuery) bool {
	if q.QueryIntent == models.IntentFindBest {
		return true
	}
	lower := strings.ToLower(q.QueryText)
	for _, kw := range leadershipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var leadershipKeywords = []string{"lead", "principal", "staff", "manager", "director", "head", "architect"}
