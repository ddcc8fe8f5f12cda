package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/resume-analyzer/internal/models"
)

const parseSnippetLen = 200

var ErrInvalidStructure = errors.New("invalid response structure from model")

// ParseError means no strategy could decode the model output. Snippet is a
// prefix of the cleaned content, for logs only.
type ParseError struct {
	Cause   error
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v (content: %q)", e.Cause, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Cause }

var (
	thinkOpenRe   = regexp.MustCompile(`(?i)<think>`)
	thinkLazyRe   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkGreedyRe = regexp.MustCompile(`(?is)<think>.*</think>`)
	thinkTagRe    = regexp.MustCompile(`(?i)</?think>`)
	fenceOpenRe   = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	fenceCloseRe  = regexp.MustCompile("\r?\n?```$")
)

type cleaningStep func(string) string

type parseStrategy struct {
	name  string
	parse func(content string) (*rawAnalysis, error)
}

// Normalizer turns raw model output into a canonical AnalysisResult.
type Normalizer struct {
	steps      []cleaningStep
	strategies []parseStrategy
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		steps: []cleaningStep{
			stripReasoning,
			stripLoneReasoningTags,
			stripCodeFence,
		},
		strategies: []parseStrategy{
			{name: "direct", parse: decodeAnalysis},
			{name: "brace-span", parse: decodeBraceSpan},
		},
	}
}

// Normalize cleans raw, tries each parse strategy in order and validates the
// first successful decode.
func (n *Normalizer) Normalize(raw string) (*models.AnalysisResult, error) {
	content := strings.TrimSpace(raw)
	for _, step := range n.steps {
		content = strings.TrimSpace(step(content))
	}

	var (
		parsed   *rawAnalysis
		firstErr error
	)
	for _, s := range n.strategies {
		res, err := s.parse(content)
		if err == nil {
			parsed = res
			break
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", s.name, err)
		}
	}
	if parsed == nil {
		return nil, &ParseError{Cause: firstErr, Snippet: snippet(content, parseSnippetLen)}
	}

	if parsed.OverallScore == nil || parsed.MatchedSkills == nil {
		return nil, ErrInvalidStructure
	}

	return parsed.canonical(), nil
}

func stripReasoning(s string) string {
	if !thinkOpenRe.MatchString(s) {
		return s
	}
	out := thinkLazyRe.ReplaceAllString(s, "")
	if thinkTagRe.MatchString(out) {
		out = thinkGreedyRe.ReplaceAllString(s, "")
	}
	return out
}

func stripLoneReasoningTags(s string) string {
	return thinkTagRe.ReplaceAllString(s, "")
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") && !strings.HasSuffix(s, "```") {
		return s
	}
	s = fenceOpenRe.ReplaceAllString(s, "")
	return fenceCloseRe.ReplaceAllString(s, "")
}

func decodeAnalysis(content string) (*rawAnalysis, error) {
	var out rawAnalysis
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeBraceSpan(content string) (*rawAnalysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no JSON object found")
	}
	return decodeAnalysis(content[start : end+1])
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// score accepts a JSON number or a numeric string.
type score float64

func (s *score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("score must be a number: %s", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("score must be a number: %q", str)
	}
	*s = score(f)
	return nil
}

// clamp rounds to the nearest integer and bounds to [0,100].
func (s *score) clamp() int {
	if s == nil {
		return 0
	}
	v := math.Round(float64(*s))
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

type rawAnalysis struct {
	OverallScore           *score                 `json:"overall_score"`
	SkillMatchScore        *score                 `json:"skill_match_score"`
	MatchedSkills          []string               `json:"matched_skills"`
	MissingSkills          []string               `json:"missing_skills"`
	FeedbackSummary        string                 `json:"feedback_summary"`
	SectionFeedback        models.SectionFeedback `json:"section_feedback"`
	SectionScores          *rawSectionScores      `json:"section_scores"`
	ImprovedSummaryExample string                 `json:"improved_summary_example"`
}

type rawSectionScores struct {
	Summary    *score `json:"summary"`
	Experience *score `json:"experience"`
	Skills     *score `json:"skills"`
	Projects   *score `json:"projects"`
}

func (r *rawAnalysis) canonical() *models.AnalysisResult {
	result := &models.AnalysisResult{
		OverallScore:           r.OverallScore.clamp(),
		SkillMatchScore:        r.SkillMatchScore.clamp(),
		MatchedSkills:          dedupSkills(r.MatchedSkills),
		MissingSkills:          dedupSkills(r.MissingSkills),
		FeedbackSummary:        strings.TrimSpace(r.FeedbackSummary),
		SectionFeedback:        r.SectionFeedback,
		ImprovedSummaryExample: strings.TrimSpace(r.ImprovedSummaryExample),
	}
	if r.SectionScores != nil {
		result.SectionScores = &models.SectionScores{
			Summary:    r.SectionScores.Summary.clamp(),
			Experience: r.SectionScores.Experience.clamp(),
			Skills:     r.SectionScores.Skills.clamp(),
			Projects:   r.SectionScores.Projects.clamp(),
		}
	}
	return result
}

// dedupSkills trims entries, drops empties and removes case-insensitive
// duplicates, keeping the first spelling in order. Never returns nil.
func dedupSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, skill := range in {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
