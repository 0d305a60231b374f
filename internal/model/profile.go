package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Profile is the signed-in user as returned by /api/me. Roles is already
// flattened to plain role names.
type Profile struct {
	ID        int64    `json:"id,omitempty"`
	Email     string   `json:"email,omitempty"`
	Username  string   `json:"username,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles"`
}

// UnmarshalJSON reads roles from "roles", falling back to "authorities"
// when "roles" is absent or null.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          int64           `json:"id"`
		Email       string          `json:"email"`
		Username    string          `json:"username"`
		FirstName   string          `json:"firstName"`
		LastName    string          `json:"lastName"`
		Roles       json.RawMessage `json:"roles"`
		Authorities json.RawMessage `json:"authorities"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	raw := wire.Roles
	if isNull(raw) {
		raw = wire.Authorities
	}

	*p = Profile{
		ID:        wire.ID,
		Email:     wire.Email,
		Username:  wire.Username,
		FirstName: wire.FirstName,
		LastName:  wire.LastName,
		Roles:     ParseRoles(raw),
	}
	return nil
}

// DisplayName is the username, else the email.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

// ParseRoles flattens a wire role list. Each element is either a plain
// string or an object carrying "authority" or "role"; anything else, and
// empty names, are dropped. A value that is not a list yields no roles.
func ParseRoles(raw json.RawMessage) []string {
	if isNull(raw) {
		return []string{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []string{}
	}

	roles := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name := strings.TrimSpace(roleName(entry)); name != "" {
			roles = append(roles, name)
		}
	}
	return roles
}

func roleName(entry json.RawMessage) string {
	var plain string
	if err := json.Unmarshal(entry, &plain); err == nil {
		return plain
	}

	var authority struct {
		Authority string `json:"authority"`
		Role      string `json:"role"`
	}
	if err := json.Unmarshal(entry, &authority); err != nil {
		return ""
	}
	if authority.Authority != "" {
		return authority.Authority
	}
	return authority.Role
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
