package models

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserResponse is the body of GET /api/user.
type UserResponse struct {
	User          any  `json:"user"`
	AnalysisCount int  `json:"analysisCount"`
	IsPremium     bool `json:"isPremium"`
	Remaining     int  `json:"remaining"`
}

// ClerkWebhookEvent is the envelope Clerk delivers through svix.
type ClerkWebhookEvent struct {
	Type string           `json:"type"`
	Data ClerkWebhookUser `json:"data"`
}

type ClerkWebhookUser struct {
	ID             string              `json:"id"`
	Username       *string             `json:"username"`
	EmailAddresses []ClerkEmailAddress `json:"email_addresses"`
}

type ClerkEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// DisplayName picks username, then first email, then the generated default.
func (u ClerkWebhookUser) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	for _, e := range u.EmailAddresses {
		if e.EmailAddress != "" {
			return e.EmailAddress
		}
	}
	return DefaultUsername(u.ID)
}
