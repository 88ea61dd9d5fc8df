package models

// Settings represents the client's local settings
type Settings struct {
	APIURL  string `json:"api_url"`  // base URL of the coaching backend
	UserID  string `json:"user_id"`  // the signed-in user's id, used for the scoring permission gate
	IsAdmin bool   `json:"is_admin"` // whether the signed-in user is an organization admin
}

// DraftRecord is a locally stashed, unsaved template draft.
type DraftRecord struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id,omitempty"` // server id when editing an existing template
	Name       string `json:"name"`
	Payload    []byte `json:"payload"`    // encoded draft state
	UpdatedAt  string `json:"updated_at"` // RFC3339 timestamp
}
