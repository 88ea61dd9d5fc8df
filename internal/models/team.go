package models

type TeamMember struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// DisplayName returns the member's full name, falling back to the email.
func (m TeamMember) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Email
}

// TeamFilter narrows a team listing.
type TeamFilter struct {
	IsActive *bool
	Search   string
	PageSize int
}
