package mail

import "github.com/northbeam/leadsite/internal/model"

// ContactData feeds the contact notification and auto-reply.
type ContactData struct {
	Contact *model.Contact
	SiteURL string
}

// NewsletterConfirmData feeds the double opt-in email.
type NewsletterConfirmData struct {
	FirstName      string
	ConfirmURL     string
	UnsubscribeURL string
	ExpiresInHours int
}

// ToolResultsData feeds the calculator results email.
type ToolResultsData struct {
	Tool    string
	Fields  []Field
	SiteURL string
}

// AssessmentResultsData feeds the assessment results email.
type AssessmentResultsData struct {
	Kind    string
	Score   int
	Tier    string
	Gaps    []string
	SiteURL string
}
