package model

import (
	"strconv"
	"strings"
)

// Project is one tracked app and the chat session used to build it
type Project struct {
	ID                 string `json:"id"`
	UserID             string `json:"userId"`
	AppName            string `json:"appName"`
	LLMName            string `json:"llmName"`
	ChatThreadTitle    string `json:"chatThreadTitle"`
	ChatThreadURL      string `json:"chatThreadUrl"`
	LastChatDate       string `json:"lastChatDate"`
	AppURL             string `json:"appUrl"`
	VSCodeURL          string `json:"vscodeUrl"`
	GitHubRef          string `json:"githubRef"`
	FirebaseRulesURL   string `json:"firebaseRulesUrl"`
	LastSolvedProblem  string `json:"lastSolvedProblem"`
	NextProblemToSolve string `json:"nextProblemToSolve"`
	Notes              string `json:"notes"`
	LastUpdatedAt      int64  `json:"lastUpdatedAt"`
}

// Fields is the user-editable part of a project
type Fields struct {
	AppName            string `json:"appName"`
	LLMName            string `json:"llmName"`
	ChatThreadTitle    string `json:"chatThreadTitle"`
	ChatThreadURL      string `json:"chatThreadUrl"`
	LastChatDate       string `json:"lastChatDate"`
	AppURL             string `json:"appUrl"`
	VSCodeURL          string `json:"vscodeUrl"`
	GitHubRef          string `json:"githubRef"`
	FirebaseRulesURL   string `json:"firebaseRulesUrl"`
	LastSolvedProblem  string `json:"lastSolvedProblem"`
	NextProblemToSolve string `json:"nextProblemToSolve"`
	Notes              string `json:"notes"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	AppName            *string `json:"appName,omitempty"`
	LLMName            *string `json:"llmName,omitempty"`
	ChatThreadTitle    *string `json:"chatThreadTitle,omitempty"`
	ChatThreadURL      *string `json:"chatThreadUrl,omitempty"`
	LastChatDate       *string `json:"lastChatDate,omitempty"`
	AppURL             *string `json:"appUrl,omitempty"`
	VSCodeURL          *string `json:"vscodeUrl,omitempty"`
	GitHubRef          *string `json:"githubRef,omitempty"`
	FirebaseRulesURL   *string `json:"firebaseRulesUrl,omitempty"`
	LastSolvedProblem  *string `json:"lastSolvedProblem,omitempty"`
	NextProblemToSolve *string `json:"nextProblemToSolve,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// ExportColumns is the column order used by CSV export
var ExportColumns = []string{
	"id",
	"userId",
	"appName",
	"llmName",
	"chatThreadTitle",
	"chatThreadUrl",
	"lastChatDate",
	"appUrl",
	"vscodeUrl",
	"githubRef",
	"firebaseRulesUrl",
	"lastSolvedProblem",
	"nextProblemToSolve",
	"notes",
	"lastUpdatedAt",
}

// Fields returns the editable part of the project
func (p Project) Fields() Fields {
	return Fields{
		AppName:            p.AppName,
		LLMName:            p.LLMName,
		ChatThreadTitle:    p.ChatThreadTitle,
		ChatThreadURL:      p.ChatThreadURL,
		LastChatDate:       p.LastChatDate,
		AppURL:             p.AppURL,
		VSCodeURL:          p.VSCodeURL,
		GitHubRef:          p.GitHubRef,
		FirebaseRulesURL:   p.FirebaseRulesURL,
		LastSolvedProblem:  p.LastSolvedProblem,
		NextProblemToSolve: p.NextProblemToSolve,
		Notes:              p.Notes,
	}
}

// NewProject builds a project from its fields
func NewProject(id, userID string, f Fields, updatedAt int64) Project {
	return Project{
		ID:                 id,
		UserID:             userID,
		AppName:            f.AppName,
		LLMName:            f.LLMName,
		ChatThreadTitle:    f.ChatThreadTitle,
		ChatThreadURL:      f.ChatThreadURL,
		LastChatDate:       f.LastChatDate,
		AppURL:             f.AppURL,
		VSCodeURL:          f.VSCodeURL,
		GitHubRef:          f.GitHubRef,
		FirebaseRulesURL:   f.FirebaseRulesURL,
		LastSolvedProblem:  f.LastSolvedProblem,
		NextProblemToSolve: f.NextProblemToSolve,
		Notes:              f.Notes,
		LastUpdatedAt:      updatedAt,
	}
}

// Patch returns a patch that sets every editable field
func (f Fields) Patch() Patch {
	return Patch{
		AppName:            &f.AppName,
		LLMName:            &f.LLMName,
		ChatThreadTitle:    &f.ChatThreadTitle,
		ChatThreadURL:      &f.ChatThreadURL,
		LastChatDate:       &f.LastChatDate,
		AppURL:             &f.AppURL,
		VSCodeURL:          &f.VSCodeURL,
		GitHubRef:          &f.GitHubRef,
		FirebaseRulesURL:   &f.FirebaseRulesURL,
		LastSolvedProblem:  &f.LastSolvedProblem,
		NextProblemToSolve: &f.NextProblemToSolve,
		Notes:              &f.Notes,
	}
}

// Apply merges the non-nil patch fields into p. ID and UserID are untouched.
func (pt Patch) Apply(p *Project) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.AppName, pt.AppName)
	set(&p.LLMName, pt.LLMName)
	set(&p.ChatThreadTitle, pt.ChatThreadTitle)
	set(&p.ChatThreadURL, pt.ChatThreadURL)
	set(&p.LastChatDate, pt.LastChatDate)
	set(&p.AppURL, pt.AppURL)
	set(&p.VSCodeURL, pt.VSCodeURL)
	set(&p.GitHubRef, pt.GitHubRef)
	set(&p.FirebaseRulesURL, pt.FirebaseRulesURL)
	set(&p.LastSolvedProblem, pt.LastSolvedProblem)
	set(&p.NextProblemToSolve, pt.NextProblemToSolve)
	set(&p.Notes, pt.Notes)
}

// IsEmpty reports whether the patch changes nothing
func (pt Patch) IsEmpty() bool {
	return pt == Patch{}
}

// Values returns the project's values in ExportColumns order
func (p Project) Values() []string {
	return []string{
		p.ID,
		p.UserID,
		p.AppName,
		p.LLMName,
		p.ChatThreadTitle,
		p.ChatThreadURL,
		p.LastChatDate,
		p.AppURL,
		p.VSCodeURL,
		p.GitHubRef,
		p.FirebaseRulesURL,
		p.LastSolvedProblem,
		p.NextProblemToSolve,
		p.Notes,
		strconv.FormatInt(p.LastUpdatedAt, 10),
	}
}

// Matches reports whether the project's app or platform name contains
// the query, ignoring case. An empty query matches everything.
func (p Project) Matches(query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.AppName), q) ||
		strings.Contains(strings.ToLower(p.LLMName), q)
}

// ShortID returns the first 8 characters of the id
func (p Project) ShortID() string {
	if len(p.ID) > 8 {
		return p.ID[:8]
	}
	return p.ID
}

// QuickResumeLinks returns the links to reopen the work: the chat thread,
// plus the GitHub reference when it is a URL.
func (p Project) QuickResumeLinks() []string {
	var links []string
	if p.ChatThreadURL != "" {
		links = append(links, p.ChatThreadURL)
	}
	if strings.HasPrefix(p.GitHubRef, "http") {
		links = append(links, p.GitHubRef)
	}
	return links
}

// DefaultPlatforms are the chat platforms offered by the editor
var DefaultPlatforms = []string{
	"Claude",
	"ChatGPT",
	"Gemini",
	"Google AI Studio",
	"Cursor",
	"GitHub Copilot",
	"Bolt",
	"Lovable",
	"v0",
	"Replit",
	"Other",
}
