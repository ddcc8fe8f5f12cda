package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptBuilder_Build(t *testing.T) {
	tests := []struct {
		name        string
		req         AnalysisRequest
		contains    []string
		notContains []string
	}{
		{
			name:        "with job description",
			req:         AnalysisRequest{ResumeText: "Go engineer", JobDescription: "  Need Kubernetes  "},
			contains:    []string{"JOB DESCRIPTION:\nNeed Kubernetes\n", "RESUME:\nGo engineer", "skills the job description asks for"},
			notContains: []string{"no job description was provided"},
		},
		{
			name:        "blank job description is absent",
			req:         AnalysisRequest{ResumeText: "Go engineer", JobDescription: " \n\t"},
			contains:    []string{"no job description was provided", "suggest commonly valuable skills"},
			notContains: []string{"JOB DESCRIPTION:"},
		},
	}

	pb := NewPromptBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pb.Build(tt.req)

			assert.Equal(t, analysisSystemPrompt, p.System)
			for _, s := range tt.contains {
				assert.Contains(t, p.User, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, p.User, s)
			}
		})
	}
}

func TestPromptBuilder_SystemPromptFixesSchema(t *testing.T) {
	for _, field := range []string{
		`"overall_score"`, `"skill_match_score"`, `"matched_skills"`, `"missing_skills"`,
		`"feedback_summary"`, `"section_feedback"`, `"section_scores"`, `"improved_summary_example"`,
		"ONLY with valid JSON",
	} {
		assert.Contains(t, analysisSystemPrompt, field)
	}
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	req := AnalysisRequest{ResumeText: "resume", JobDescription: "jd"}
	assert.Equal(t, NewPromptBuilder().Build(req), NewPromptBuilder().Build(req))
}
