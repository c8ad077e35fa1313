package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/cache"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/lifecycle"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RequestService drives the maintenance request lifecycle. Every mutation
// re-reads the request, evaluates the lifecycle predicates, and persists
// through a versioned update so concurrent writers surface as conflicts.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	teams      repository.TeamRepository
	equipment  repository.EquipmentRepository
	history    repository.RequestHistoryRepository
	dispatcher events.Dispatcher
	cache      *cache.RequestCache
	logger     *zap.Logger
}

// RequestServiceDeps bundles dependencies for construction.
type RequestServiceDeps struct {
	Requests   repository.RequestRepository
	Users      repository.UserRepository
	Teams      repository.TeamRepository
	Equipment  repository.EquipmentRepository
	History    repository.RequestHistoryRepository
	Dispatcher events.Dispatcher
	Cache      *cache.RequestCache
	Logger     *zap.Logger
}

// NewRequestService wires the lifecycle service.
func NewRequestService(deps RequestServiceDeps) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.Requests,
		users:      deps.Users,
		teams:      deps.Teams,
		equipment:  deps.Equipment,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     logger,
	}
}

// CreateRequestInput carries the author-supplied fields of a new request.
type CreateRequestInput struct {
	Subject       string
	Description   string
	EquipmentID   *string
	EquipmentName *string
	RequestType   domain.RequestType
	ScheduledDate time.Time
}

// StatusUpdateInput carries a requested transition plus the optional
// completion details technicians attach while closing out work.
type StatusUpdateInput struct {
	NewStatus             domain.RequestStatus
	Duration              *float64
	TechnicianDescription *string
}

// EditInput is a partial update proposal. Nil fields are untouched.
type EditInput struct {
	Subject          *string
	Description      *string
	EquipmentID      *string
	EquipmentName    *string
	ScheduledDate    *time.Time
	Duration         *float64
	RequiresApproval bool
}

// ResolvedRequest is a request with its cross-references populated.
type ResolvedRequest struct {
	Request    domain.MaintenanceRequest `json:"request"`
	CreatedBy  *domain.User              `json:"created_by,omitempty"`
	ApprovedBy *domain.User              `json:"approved_by,omitempty"`
	Technician *domain.User              `json:"technician,omitempty"`
	Team       *domain.Team              `json:"team,omitempty"`
	Equipment  *domain.Equipment         `json:"equipment,omitempty"`
	History    []domain.RequestHistory   `json:"history,omitempty"`
}

// RequestListFilter narrows request listings.
type RequestListFilter struct {
	EquipmentID *string
	Statuses    []domain.RequestStatus
	RequestType *domain.RequestType
	TeamID      *string
	CreatedBy   *string
	AssignedTo  *string
	Limit       int
	Offset      int
}

// Create registers a new maintenance request in pending state. Managers
// approve requests, they never originate them.
func (s *RequestService) Create(ctx context.Context, actor domain.Identity, input CreateRequestInput) (*domain.MaintenanceRequest, error) {
	if !lifecycle.CanCreate(actor.Role) {
		return nil, apperrors.NewForbiddenRole("managers cannot create maintenance requests")
	}

	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Subject) == "" {
		fieldErrors["subject"] = "subject is required"
	}
	if input.RequestType != domain.RequestTypeCorrective && input.RequestType != domain.RequestTypePreventive {
		fieldErrors["request_type"] = "request type must be corrective or preventive"
	}
	if input.ScheduledDate.IsZero() {
		fieldErrors["scheduled_date"] = "scheduled date is required"
	}
	hasID := input.EquipmentID != nil && *input.EquipmentID != ""
	hasName := input.EquipmentName != nil && strings.TrimSpace(*input.EquipmentName) != ""
	if hasID == hasName {
		fieldErrors["equipment"] = "exactly one of equipment_id or equipment_name must be provided"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid request payload", fieldErrors)
	}

	if hasID {
		if _, err := s.equipment.GetByID(ctx, *input.EquipmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("equipment", map[string]any{"equipment_id": *input.EquipmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	request := &domain.MaintenanceRequest{
		Subject:       strings.TrimSpace(input.Subject),
		Description:   input.Description,
		RequestType:   input.RequestType,
		ScheduledDate: input.ScheduledDate,
		Status:        domain.RequestStatusPending,
		CreatedBy:     actor.ID,
	}
	if hasID {
		request.EquipmentID = input.EquipmentID
	} else {
		request.EquipmentName = input.EquipmentName
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeStatus,
		nil, map[string]any{"status": request.Status})
	s.publishEvent(ctx, events.EventRequestCreated, request.ID, actor, events.RequestCreatedPayload{
		Subject:       request.Subject,
		RequestType:   request.RequestType,
		EquipmentID:   request.EquipmentID,
		EquipmentName: request.EquipmentName,
		ScheduledDate: request.ScheduledDate,
	})

	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("created_by", actor.ID),
		zap.String("request_type", string(request.RequestType)))
	return request, nil
}

// Approve moves a pending request to approved and binds the maintenance
// team that will handle it. Manager only.
func (s *RequestService) Approve(ctx context.Context, actor domain.Identity, requestID, teamID string) (*domain.MaintenanceRequest, error) {
	if !lifecycle.CanApprove(actor.Role) {
		return nil, apperrors.NewForbiddenRole("only the manager may approve requests")
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.RequestStatusPending {
		return nil, apperrors.NewInvalidTransition(string(request.Status), string(domain.RequestStatusApproved))
	}
	if teamID == "" {
		return nil, apperrors.NewValidationError("a maintenance team is required for approval",
			map[string]any{"team_id": "team_id is required"})
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}

	now := time.Now()
	request.Status = domain.RequestStatusApproved
	request.ApprovedBy = &actor.ID
	request.ApprovedAt = &now
	request.MaintenanceTeamID = &team.ID

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeApproval,
		map[string]any{"status": domain.RequestStatusPending},
		map[string]any{"status": request.Status, "maintenance_team_id": team.ID})
	s.publishEvent(ctx, events.EventRequestApproved, request.ID, actor, events.RequestApprovedPayload{
		TeamID:     team.ID,
		ApprovedBy: actor.ID,
	})

	s.logger.Info("request approved",
		zap.String("request_id", request.ID),
		zap.String("team_id", team.ID))
	return request, nil
}

// AcceptTask lets a technician on the assigned team claim an approved
// request, moving it to assigned.
func (s *RequestService) AcceptTask(ctx context.Context, actor domain.Identity, requestID string) (*domain.MaintenanceRequest, error) {
	if !lifecycle.CanAcceptTask(actor.Role) {
		return nil, apperrors.NewForbiddenRole("only technicians may accept tasks")
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.RequestStatusApproved {
		return nil, apperrors.NewInvalidTransition(string(request.Status), string(domain.RequestStatusAssigned))
	}
	if request.MaintenanceTeamID == nil {
		return nil, apperrors.NewInvalidState("request has no maintenance team assigned")
	}
	team, err := s.teams.GetByID(ctx, *request.MaintenanceTeamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": *request.MaintenanceTeamID})
		}
		return nil, apperrors.MapError(err)
	}
	if !team.HasMember(actor.ID) {
		return nil, apperrors.NewNotTeamMember("technician is not a member of the assigned team")
	}

	request.Status = domain.RequestStatusAssigned
	request.AssignedTechnicianID = &actor.ID

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeAssignment,
		map[string]any{"status": domain.RequestStatusApproved},
		map[string]any{"status": request.Status, "assigned_technician_id": actor.ID})
	s.publishEvent(ctx, events.EventTaskAccepted, request.ID, actor, events.TaskAcceptedPayload{
		TechnicianID: actor.ID,
		TeamID:       team.ID,
	})

	s.logger.Info("task accepted",
		zap.String("request_id", request.ID),
		zap.String("technician_id", actor.ID))
	return request, nil
}

// UpdateStatus applies a transition from the actor's role table. A
// technician may only move their own assigned task.
func (s *RequestService) UpdateStatus(ctx context.Context, actor domain.Identity, requestID string, input StatusUpdateInput) (*domain.MaintenanceRequest, error) {
	if lifecycle.TransitionTable(actor.Role) == nil {
		return nil, apperrors.NewForbiddenRole("role may not change request status")
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanTransition(actor.Role, request.Status, input.NewStatus) {
		return nil, apperrors.NewInvalidTransition(string(request.Status), string(input.NewStatus))
	}
	if actor.Role == domain.RoleTechnician && !lifecycle.IsAssignedActor(request, actor.ID) {
		return nil, apperrors.NewNotAssignedActor("technicians may only update their own assigned tasks")
	}

	oldStatus := request.Status
	request.Status = input.NewStatus
	if input.Duration != nil {
		request.Duration = input.Duration
	}
	if input.TechnicianDescription != nil {
		request.TechnicianDescription = input.TechnicianDescription
	}
	if lifecycle.CompletionStatus(input.NewStatus) {
		now := time.Now()
		request.CompletedAt = &now
	}

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": request.Status})
	s.publishEvent(ctx, events.EventRequestStatusChanged, request.ID, actor, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: request.Status,
	})

	s.logger.Info("request status changed",
		zap.String("request_id", request.ID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(request.Status)))
	return request, nil
}

// AddFeedback records the author's feedback on a completed request.
func (s *RequestService) AddFeedback(ctx context.Context, actor domain.Identity, requestID, feedback string, rating *int) (*domain.MaintenanceRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.IsAuthor(request, actor.ID) {
		return nil, apperrors.NewForbiddenActor("only the request author may add feedback")
	}
	if !request.Completed() {
		return nil, apperrors.NewInvalidState("feedback is only accepted on repaired or scrapped requests")
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, apperrors.NewValidationError("feedback text is required",
			map[string]any{"feedback": "feedback is required"})
	}
	if rating != nil && !lifecycle.ValidRating(*rating) {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5",
			map[string]any{"rating": *rating})
	}

	request.UserFeedback = &feedback
	request.FeedbackRating = rating

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	preview := feedback
	if len(preview) > 80 {
		preview = preview[:80]
	}
	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeFeedback,
		nil, map[string]any{"feedback": preview, "rating": rating})
	s.publishEvent(ctx, events.EventFeedbackAdded, request.ID, actor, events.FeedbackAddedPayload{
		Rating:  rating,
		Preview: preview,
	})
	return request, nil
}

// ProposeEdit applies an edit directly, or stores it as a pending overlay
// for manager resolution when approval is required. Managers always edit
// in place. A newly proposed edit replaces any unresolved one.
func (s *RequestService) ProposeEdit(ctx context.Context, actor domain.Identity, requestID string, input EditInput) (*domain.MaintenanceRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if input.EquipmentID != nil && input.EquipmentName != nil {
		return nil, apperrors.NewValidationError("an edit may change equipment_id or equipment_name, not both",
			map[string]any{"equipment": "equipment_id and equipment_name are mutually exclusive"})
	}
	if input.Subject == nil && input.Description == nil && input.EquipmentID == nil &&
		input.EquipmentName == nil && input.ScheduledDate == nil && input.Duration == nil {
		return nil, apperrors.NewValidationError("edit contains no changes", nil)
	}
	if input.EquipmentID != nil {
		if _, err := s.equipment.GetByID(ctx, *input.EquipmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("equipment", map[string]any{"equipment_id": *input.EquipmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	edit := &domain.PendingEdit{
		Subject:       input.Subject,
		Description:   input.Description,
		EquipmentID:   input.EquipmentID,
		EquipmentName: input.EquipmentName,
		ScheduledDate: input.ScheduledDate,
		Duration:      input.Duration,
		RequestedAt:   time.Now(),
	}

	deferred := lifecycle.EditRequiresApproval(actor.Role, input.RequiresApproval)
	if deferred {
		pending := domain.EditApprovalPending
		request.PendingEdit = edit
		request.EditApprovalStatus = &pending
	} else {
		request.ApplyEdit(edit)
		request.PendingEdit = nil
		request.EditApprovalStatus = nil
	}

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeEditProposed,
		nil, map[string]any{"deferred": deferred})
	s.publishEvent(ctx, events.EventEditProposed, request.ID, actor, events.EditProposedPayload{
		ProposedBy:  actor.ID,
		RequestedAt: edit.RequestedAt,
	})
	return request, nil
}

// ResolveEdit lets the manager approve or reject the pending edit overlay.
// Either way the overlay is cleared; approval merges it into the request.
func (s *RequestService) ResolveEdit(ctx context.Context, actor domain.Identity, requestID string, approve bool) (*domain.MaintenanceRequest, error) {
	if actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbiddenRole("only the manager may resolve pending edits")
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.PendingEdit == nil {
		return nil, apperrors.NewNoPendingEdit(requestID)
	}

	now := time.Now()
	if approve {
		request.ApplyEdit(request.PendingEdit)
		resolved := domain.EditApprovalApproved
		request.EditApprovalStatus = &resolved
		request.EditApprovedAt = &now
	} else {
		resolved := domain.EditApprovalRejected
		request.EditApprovalStatus = &resolved
		request.EditRejectedAt = &now
	}
	request.PendingEdit = nil

	if err := s.saveRequest(ctx, request); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, request.ID, actor, domain.ChangeTypeEditResolved,
		nil, map[string]any{"approved": approve})
	s.publishEvent(ctx, events.EventEditResolved, request.ID, actor, events.EditResolvedPayload{
		Approved:   approve,
		ResolvedBy: actor.ID,
	})
	return request, nil
}

// Delete removes a request permanently. Manager only.
func (s *RequestService) Delete(ctx context.Context, actor domain.Identity, requestID string) error {
	if actor.Role != domain.RoleManager {
		return apperrors.NewForbiddenRole("only the manager may delete requests")
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("maintenance request", map[string]any{"request_id": requestID})
		}
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventRequestDeleted, requestID, actor, nil)
	s.logger.Info("request deleted", zap.String("request_id", requestID))
	return nil
}

// Get returns a request with its references and audit trail resolved,
// served from cache when a fresh entry exists.
func (s *RequestService) Get(ctx context.Context, requestID string) (*ResolvedRequest, error) {
	var cached ResolvedRequest
	if s.cache.Get(ctx, requestID, &cached) {
		return &cached, nil
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedRequest{Request: *request}
	resolved.CreatedBy = s.lookupUser(ctx, &request.CreatedBy)
	resolved.ApprovedBy = s.lookupUser(ctx, request.ApprovedBy)
	resolved.Technician = s.lookupUser(ctx, request.AssignedTechnicianID)
	if request.MaintenanceTeamID != nil {
		if team, err := s.teams.GetByID(ctx, *request.MaintenanceTeamID); err == nil {
			resolved.Team = team
		}
	}
	if request.EquipmentID != nil {
		if equipment, err := s.equipment.GetByID(ctx, *request.EquipmentID); err == nil {
			resolved.Equipment = equipment
		}
	}
	if s.history != nil {
		if entries, err := s.history.ListByRequest(ctx, requestID); err == nil {
			resolved.History = entries
		}
	}

	s.cache.Set(ctx, requestID, resolved)
	return resolved, nil
}

// List returns requests matching the filter. Requests authored by the
// manager are excluded; only user and technician submissions surface.
func (s *RequestService) List(ctx context.Context, filter RequestListFilter) ([]domain.MaintenanceRequest, error) {
	repoFilter := repository.RequestFilter{
		EquipmentID:    filter.EquipmentID,
		Statuses:       filter.Statuses,
		RequestType:    filter.RequestType,
		TeamID:         filter.TeamID,
		CreatedBy:      filter.CreatedBy,
		AssignedTechID: filter.AssignedTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}

	managerRole := domain.RoleManager
	managers, err := s.users.List(ctx, repository.UserFilter{Role: &managerRole, Limit: 1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, manager := range managers {
		repoFilter.ExcludeCreators = append(repoFilter.ExcludeCreators, manager.ID)
	}

	result, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *RequestService) loadRequest(ctx context.Context, requestID string) (*domain.MaintenanceRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("maintenance request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

func (s *RequestService) saveRequest(ctx context.Context, request *domain.MaintenanceRequest) error {
	if err := s.requests.Update(ctx, request); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return apperrors.NewConflict("request was modified concurrently, retry with fresh state",
				map[string]any{"request_id": request.ID})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("maintenance request", map[string]any{"request_id": request.ID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// recordHistory is best-effort; a failed audit write never rolls back the
// mutation that caused it.
func (s *RequestService) recordHistory(ctx context.Context, requestID string, actor domain.Identity, changeType domain.RequestChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.RequestHistory{
		RequestID:   requestID,
		ChangedBy:   actor.ID,
		ChangedRole: actor.Role,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history write failed",
			zap.String("request_id", requestID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *RequestService) publishEvent(ctx context.Context, eventType events.EventType, requestID string, actor domain.Identity, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func (s *RequestService) lookupUser(ctx context.Context, id *string) *domain.User {
	if id == nil || *id == "" {
		return nil
	}
	user, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return nil
	}
	return user
}
