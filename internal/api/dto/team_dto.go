package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TeamPayload payload for create/update.
type TeamPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

// TeamMemberPayload payload.
type TeamMemberPayload struct {
	UserID string `json:"user_id"`
}

// TeamResponse is the wire form of a team.
type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTeamResponse maps a team.
func NewTeamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		MemberIDs:   team.MemberIDs,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}
