package models

// Player represents a roster entry. Immutable after session creation.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	TeamID      string `json:"team_id,omitempty"`
}

// Team groups players when team mode is enabled. Every player belongs to at
// most one team.
type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PlayerIDs []string `json:"player_ids"`
}
