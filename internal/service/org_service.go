package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// OrgService manages teams and user administration. Write operations are
// manager-gated at the router; destructive user changes are re-checked here.
type OrgService struct {
	teams  repository.TeamRepository
	users  repository.UserRepository
	logger *zap.Logger
}

// NewOrgService constructs the service.
func NewOrgService(teams repository.TeamRepository, users repository.UserRepository, logger *zap.Logger) *OrgService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrgService{teams: teams, users: users, logger: logger}
}

// TeamInput carries team creation/update fields.
type TeamInput struct {
	Name        string
	Description string
	MemberIDs   []string
}

// CreateTeam registers a maintenance team. Listed members must be
// technicians; other roles cannot carry out maintenance work.
func (s *OrgService) CreateTeam(ctx context.Context, input TeamInput) (*domain.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("team name is required",
			map[string]any{"name": "name is required"})
	}
	if err := s.requireTechnicians(ctx, input.MemberIDs); err != nil {
		return nil, err
	}

	team := &domain.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		MemberIDs:   input.MemberIDs,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("team created", zap.String("team_id", team.ID), zap.Int("members", len(team.MemberIDs)))
	return team, nil
}

// UpdateTeam changes name and description.
func (s *OrgService) UpdateTeam(ctx context.Context, teamID string, input TeamInput) (*domain.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) != "" {
		team.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != "" {
		team.Description = input.Description
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// GetTeam fetches one team with its member list.
func (s *OrgService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListTeams pages through teams.
func (s *OrgService) ListTeams(ctx context.Context, limit, offset int) ([]domain.Team, error) {
	teams, err := s.teams.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// AddTeamMember adds a technician to a team.
func (s *OrgService) AddTeamMember(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.requireTechnicians(ctx, []string{userID}); err != nil {
		return nil, err
	}
	if err := s.teams.AddMember(ctx, teamID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.GetTeam(ctx, teamID)
}

// RemoveTeamMember removes a member from a team.
func (s *OrgService) RemoveTeamMember(ctx context.Context, teamID, userID string) (*domain.Team, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.GetTeam(ctx, teamID)
}

// DeleteTeam removes a team.
func (s *OrgService) DeleteTeam(ctx context.Context, teamID string) error {
	if err := s.teams.Delete(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListUsers pages through identities, optionally filtered by role.
func (s *OrgService) ListUsers(ctx context.Context, role *domain.Role, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{Role: role, Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser fetches one identity.
func (s *OrgService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UserUpdateInput carries mutable profile fields. Role changes are not
// supported; the single-manager invariant is enforced at registration.
type UserUpdateInput struct {
	Name   *string
	Avatar *string
	Skills []string
}

// UpdateUser modifies a profile. Callers may update themselves; the
// manager may update anyone.
func (s *OrgService) UpdateUser(ctx context.Context, actor domain.Identity, userID string, input UserUpdateInput) (*domain.User, error) {
	if actor.ID != userID && actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbiddenActor("only the manager may update other users")
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Skills != nil {
		user.Skills = input.Skills
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an identity. Manager only; the manager cannot
// delete themselves.
func (s *OrgService) DeleteUser(ctx context.Context, actor domain.Identity, userID string) error {
	if actor.Role != domain.RoleManager {
		return apperrors.NewForbiddenRole("only the manager may delete users")
	}
	if actor.ID == userID {
		return apperrors.NewInvalidState("the manager account cannot delete itself")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (s *OrgService) requireTechnicians(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": id})
			}
			return apperrors.MapError(err)
		}
		if user.Role != domain.RoleTechnician {
			return apperrors.NewValidationError("team members must be technicians",
				map[string]any{"user_id": id, "role": user.Role})
		}
	}
	return nil
}
