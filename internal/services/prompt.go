package services

import (
	"fmt"
	"strings"
)

// AnalysisRequest is the input of one analysis. JobDescription may be empty.
type AnalysisRequest struct {
	ResumeText     string
	JobDescription string
}

// HasJobDescription reports whether a non-blank job description was supplied.
func (r AnalysisRequest) HasJobDescription() bool {
	return strings.TrimSpace(r.JobDescription) != ""
}

type Prompt struct {
	System string
	User   string
}

const analysisSystemPrompt = `You are an expert ATS (Applicant Tracking System) resume analyzer and career coach. Your task is to analyze a resume and provide detailed, actionable feedback.

CRITICAL: You must respond ONLY with valid JSON. Do not include any explanatory text, reasoning, markdown formatting, or code blocks. Return raw JSON only.

The JSON structure must be:
{
  "overall_score": <integer 0-100>,
  "skill_match_score": <integer 0-100>,
  "matched_skills": [<array of strings>],
  "missing_skills": [<array of strings>],
  "feedback_summary": "<2-3 sentence overall assessment>",
  "section_feedback": {
    "summary": "<feedback on professional summary/objective>",
    "experience": "<feedback on work experience section>",
    "skills": "<feedback on skills section>",
    "projects": "<feedback on projects section>"
  },
  "section_scores": {
    "summary": <integer 0-100>,
    "experience": <integer 0-100>,
    "skills": <integer 0-100>,
    "projects": <integer 0-100>
  },
  "improved_summary_example": "<rewritten professional summary>"
}

Every score must be an integer between 0 and 100. Skill lists must not repeat an entry.`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build creates the system/user prompt pair for one analysis request.
func (pb *PromptBuilder) Build(req AnalysisRequest) Prompt {
	resume := strings.TrimSpace(req.ResumeText)

	if req.HasJobDescription() {
		return Prompt{
			System: analysisSystemPrompt,
			User:   pb.buildJobMatchPrompt(resume, strings.TrimSpace(req.JobDescription)),
		}
	}

	return Prompt{
		System: analysisSystemPrompt,
		User:   pb.buildGeneralPrompt(resume),
	}
}

func (pb *PromptBuilder) buildJobMatchPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Analyze this resume against the following job description:

JOB DESCRIPTION:
%s

RESUME:
%s

Score how well the resume aligns with the job. For matched_skills, list skills found in both the resume and the job description. For missing_skills, list skills the job description asks for that the resume lacks.
Provide section-by-section feedback and an improved summary tailored to this role.`,
		jobDescription, resumeText)
}

func (pb *PromptBuilder) buildGeneralPrompt(resumeText string) string {
	return fmt.Sprintf(`Analyze this resume and provide general feedback on ATS compatibility:

RESUME:
%s

Since no job description was provided, focus on general resume quality, ATS-friendliness, and common best practices. For matched_skills, list the strongest skills the resume already demonstrates. For missing_skills, suggest commonly valuable skills in the candidate's field.`,
		resumeText)
}
