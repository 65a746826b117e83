package models

// Identity is resolved once per connection from its credential and never changes afterwards.
// Role is only used to label presence, not for access control.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// DisplayName falls back to the user id when no username was issued.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return i.UserID
}
