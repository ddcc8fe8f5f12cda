package models

// AnalysisResult is the canonical analysis record returned by POST /api/analyze.
// Scores are integers in [0,100] and skill lists hold no case-insensitive duplicates.
type AnalysisResult struct {
	OverallScore           int             `json:"overall_score"`
	SkillMatchScore        int             `json:"skill_match_score"`
	MatchedSkills          []string        `json:"matched_skills"`
	MissingSkills          []string        `json:"missing_skills"`
	FeedbackSummary        string          `json:"feedback_summary"`
	SectionFeedback        SectionFeedback `json:"section_feedback"`
	SectionScores          *SectionScores  `json:"section_scores,omitempty"`
	ImprovedSummaryExample string          `json:"improved_summary_example"`
}

type SectionFeedback struct {
	Summary    string `json:"summary"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
	Projects   string `json:"projects"`
}

type SectionScores struct {
	Summary    int `json:"summary"`
	Experience int `json:"experience"`
	Skills     int `json:"skills"`
	Projects   int `json:"projects"`
}
