package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"alfredoptarigan/rag-candidates/internal/models"
)

const maxPrimarySkills = 5

// Chunk is one embeddable document with the metadata stored next to its vector.
type Chunk struct {
	ID       string
	Document string
	Metadata models.Metadata
}

// PrimarySkills returns up to five High or Very High skills in matrix order.
func PrimarySkills(c models.Candidate) []string {
	var out []string
	for _, s := range c.Record.SkillMatrix {
		if len(out) == maxPrimarySkills {
			break
		}
		name := strings.TrimSpace(s.Name)
		if name == "" || !s.IsStrong() {
			continue
		}
		out = append(out, name)
	}
	return out
}

func BuildCandidateMetadata(c models.Candidate) models.Metadata {
	info := c.Record.GeneralInfo
	if info == nil {
		info = &models.GeneralInfo{}
	}

	english := strings.TrimSpace(info.EnglishLevel)
	if english == "" {
		english = models.UnknownValue
	}

	m := models.Metadata{
		models.FieldType:            models.String(models.TypeCandidate),
		models.FieldCandidateID:     models.String(c.ID),
		models.FieldEnglishLevel:    models.String(english),
		models.FieldEnglishLevelNum: models.Int(models.EnglishLevelToNum(english)),
		models.FieldPrepared:        models.Bool(c.Prepared()),
	}
	if name, ok := c.DisplayName(); ok {
		m[models.FieldFullname] = models.String(name)
	}
	if v := strings.TrimSpace(info.SeniorityLevel); v != "" {
		m[models.FieldSeniorityLevel] = models.String(v)
	}
	if info.YearsExperience != nil {
		m[models.FieldYearsExperience] = models.Int(*info.YearsExperience)
	}
	if info.RelevantYears != nil {
		m[models.FieldRelevantYears] = models.Int(*info.RelevantYears)
	}
	if v := strings.TrimSpace(info.MainIndustry); v != "" {
		m[models.FieldMainIndustry] = models.String(v)
	}
	if skills := PrimarySkills(c); len(skills) > 0 {
		m[models.FieldPrimarySkills] = models.StringList(skills)
	}
	return m
}

// CandidateTextBlocks renders the profile, skill and keyword blocks plus the compact raw record.
func CandidateTextBlocks(c models.Candidate) []string {
	var blocks []string

	header := strings.TrimSpace(fmt.Sprintf("[Candidate] %s %s", c.ID, c.TitleHint()))
	blocks = append(blocks, header+"\nSummary:\n"+strings.TrimSpace(c.Record.Summary))

	var names []string
	for _, s := range c.Record.SkillMatrix {
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		blocks = append(blocks, "Skills: "+strings.Join(names, ", "))
	}

	if keywords := derivedKeywords(c); len(keywords) > 0 {
		blocks = append(blocks, "DerivedKeywords: "+strings.Join(keywords, ", "))
	}

	if raw := compactJSON(c.Raw); raw != "" {
		blocks = append(blocks, raw)
	}
	return blocks
}

func derivedKeywords(c models.Candidate) []string {
	set := make(map[string]struct{})
	add := func(v string) {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}

	if info := c.Record.GeneralInfo; info != nil {
		add(info.TitleDetected)
		add(info.TitlePredicted)
		add(info.MainIndustry)
	}
	for _, s := range c.Record.SkillMatrix {
		add(s.Name)
		add(s.Category)
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func compactJSON(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf strings.Builder
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(buf.String())
}

// BuildSkillDocuments emits one chunk per strong skill.
func BuildSkillDocuments(c models.Candidate) []Chunk {
	info := c.Record.GeneralInfo
	if info == nil {
		info = &models.GeneralInfo{}
	}
	seniority := strings.TrimSpace(info.SeniorityLevel)
	if seniority == "" {
		seniority = models.UnknownValue
	}
	years := 0
	if info.YearsExperience != nil {
		years = *info.YearsExperience
	}
	fullname, hasName := c.DisplayName()
	primary := PrimarySkills(c)

	var chunks []Chunk
	for _, s := range c.Record.SkillMatrix {
		name := strings.TrimSpace(s.Name)
		level := strings.TrimSpace(s.Level)
		if name == "" || level == "" || !s.IsStrong() {
			continue
		}

		doc := fmt.Sprintf("%s (%s)", name, level)
		if evidence := strings.TrimSpace(s.Evidence); evidence != "" {
			doc += ": " + evidence
		}

		m := models.Metadata{
			models.FieldType:            models.String(models.TypeSkill),
			models.FieldCandidateID:     models.String(c.ID),
			models.FieldSkillName:       models.String(NormalizeTechnology(name)),
			models.FieldSkillLevel:      models.String(level),
			models.FieldSeniorityLevel:  models.String(seniority),
			models.FieldYearsExperience: models.Int(years),
		}
		if hasName {
			m[models.FieldFullname] = models.String(fullname)
		}
		// technology searches only return skill chunks, so they carry the ranking inputs too
		if len(primary) > 0 {
			m[models.FieldPrimarySkills] = models.StringList(primary)
		}

		chunks = append(chunks, Chunk{
			ID:       chunkID(c.ID, models.TypeSkill, len(chunks)),
			Document: doc,
			Metadata: m,
		})
	}
	return chunks
}

// BuildResumeChunks splits resume text into overlapping chunks that carry the
// candidate metadata, typed as resume.
func BuildResumeChunks(c models.Candidate, text string, chunker TextChunker, size, overlap int) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	base := BuildCandidateMetadata(c)
	base[models.FieldType] = models.String(models.TypeResume)

	parts := chunker.ChunkText(text, size, overlap)
	chunks := make([]Chunk, 0, len(parts))
	for i, part := range parts {
		m := base.Clone()
		m[models.FieldChunkIndex] = models.Int(i)
		chunks = append(chunks, Chunk{
			ID:       chunkID(c.ID, models.TypeResume, i),
			Document: part,
			Metadata: m,
		})
	}
	return chunks
}

// BuildCandidateChunks returns the text-block chunks followed by the skill chunks.
func BuildCandidateChunks(c models.Candidate) []Chunk {
	meta := BuildCandidateMetadata(c)
	blocks := CandidateTextBlocks(c)

	chunks := make([]Chunk, 0, len(blocks))
	for i, block := range blocks {
		chunks = append(chunks, Chunk{
			ID:       chunkID(c.ID, models.TypeCandidate, i),
			Document: block,
			Metadata: meta.Clone(),
		})
	}
	return append(chunks, BuildSkillDocuments(c)...)
}

func chunkID(candidateID, kind string, n int) string {
	return fmt.Sprintf("%s:%s:%d", candidateID, kind, n)
}
