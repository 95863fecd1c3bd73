// Package identity defines the external identity provider used in hosted mode.
package identity

import (
	"context"
	"strings"
)

// Team is the team object some providers return next to the flat team id.
type Team struct {
	ID string `json:"id"`
}

// Identity is the user as reported by the identity provider.
type Identity struct {
	ID             string `json:"id"`
	SelectedTeamID string `json:"selected_team_id"`
	SelectedTeam   *Team  `json:"selected_team"`
}

// TeamID returns the selected team id, falling back to the team object.
func (i *Identity) TeamID() string {
	if i.SelectedTeamID != "" {
		return i.SelectedTeamID
	}

	if i.SelectedTeam != nil {
		return i.SelectedTeam.ID
	}

	return ""
}

// Provider validates a bearer credential. A nil identity without error means the
// credential is not accepted. Errors are reserved for transport failures.
type Provider interface {
	GetUser(ctx context.Context, authorization string) (*Identity, error)
}

// BearerToken strips one leading "Bearer " from an Authorization header value.
func BearerToken(authorization string) string {
	return strings.TrimPrefix(authorization, "Bearer ")
}
