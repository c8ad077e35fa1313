package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateRequestPayload payload.
type CreateRequestPayload struct {
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	EquipmentID   *string   `json:"equipment_id"`
	EquipmentName *string   `json:"equipment_name"`
	RequestType   string    `json:"request_type"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// ApproveRequestPayload payload.
type ApproveRequestPayload struct {
	TeamID string `json:"team_id"`
}

// UpdateStatusPayload payload.
type UpdateStatusPayload struct {
	Status                string   `json:"status"`
	Duration              *float64 `json:"duration"`
	TechnicianDescription *string  `json:"technician_description"`
}

// FeedbackPayload payload.
type FeedbackPayload struct {
	Feedback string `json:"feedback"`
	Rating   *int   `json:"rating"`
}

// ProposeEditPayload carries a partial update proposal.
type ProposeEditPayload struct {
	Subject          *string    `json:"subject"`
	Description      *string    `json:"description"`
	EquipmentID      *string    `json:"equipment_id"`
	EquipmentName    *string    `json:"equipment_name"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	Duration         *float64   `json:"duration"`
	RequiresApproval bool       `json:"requires_approval"`
}

// ResolveEditPayload payload.
type ResolveEditPayload struct {
	Approve bool `json:"approve"`
}

// RequestListQuery captures query filters for request listings.
type RequestListQuery struct {
	Statuses    []domain.RequestStatus
	RequestType *domain.RequestType
	EquipmentID *string
	TeamID      *string
	CreatedBy   *string
	AssignedTo  *string
	Page        int
	PageSize    int
}

// PendingEditResponse mirrors a stored edit overlay.
type PendingEditResponse struct {
	Subject       *string    `json:"subject,omitempty"`
	Description   *string    `json:"description,omitempty"`
	EquipmentID   *string    `json:"equipment_id,omitempty"`
	EquipmentName *string    `json:"equipment_name,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Duration      *float64   `json:"duration,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
}

// RequestResponse is the wire form of a maintenance request.
type RequestResponse struct {
	ID                    string               `json:"id"`
	Subject               string               `json:"subject"`
	Description           string               `json:"description"`
	EquipmentID           *string              `json:"equipment_id"`
	EquipmentName         *string              `json:"equipment_name"`
	RequestType           domain.RequestType   `json:"request_type"`
	ScheduledDate         time.Time            `json:"scheduled_date"`
	Status                domain.RequestStatus `json:"status"`
	CreatedBy             string               `json:"created_by"`
	ApprovedBy            *string              `json:"approved_by"`
	ApprovedAt            *time.Time           `json:"approved_at"`
	MaintenanceTeamID     *string              `json:"maintenance_team_id"`
	AssignedTechnicianID  *string              `json:"assigned_technician_id"`
	Duration              *float64             `json:"duration"`
	TechnicianDescription *string              `json:"technician_description"`
	CompletedAt           *time.Time           `json:"completed_at"`
	UserFeedback          *string              `json:"user_feedback"`
	FeedbackRating        *int                 `json:"feedback_rating"`
	PendingEdit           *PendingEditResponse `json:"pending_edit,omitempty"`
	EditApprovalStatus    *string              `json:"edit_approval_status"`
	EditApprovedAt        *time.Time           `json:"edit_approved_at"`
	EditRejectedAt        *time.Time           `json:"edit_rejected_at"`
	Version               int64                `json:"version"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID          string         `json:"id"`
	ChangedBy   string         `json:"changed_by"`
	ChangedRole domain.Role    `json:"changed_role"`
	ChangeType  string         `json:"change_type"`
	OldValue    map[string]any `json:"old_value,omitempty"`
	NewValue    map[string]any `json:"new_value,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RequestDetailResponse is a request with resolved references.
type RequestDetailResponse struct {
	RequestResponse
	CreatedByUser  *UserSummary           `json:"created_by_user,omitempty"`
	ApprovedByUser *UserSummary           `json:"approved_by_user,omitempty"`
	Technician     *UserSummary           `json:"technician,omitempty"`
	Team           *TeamResponse          `json:"team,omitempty"`
	Equipment      *EquipmentResponse     `json:"equipment,omitempty"`
	History        []HistoryEntryResponse `json:"history,omitempty"`
}

// NewRequestResponse maps the domain aggregate onto the wire form.
func NewRequestResponse(request *domain.MaintenanceRequest) RequestResponse {
	response := RequestResponse{
		ID:                    request.ID,
		Subject:               request.Subject,
		Description:           request.Description,
		EquipmentID:           request.EquipmentID,
		EquipmentName:         request.EquipmentName,
		RequestType:           request.RequestType,
		ScheduledDate:         request.ScheduledDate,
		Status:                request.Status,
		CreatedBy:             request.CreatedBy,
		ApprovedBy:            request.ApprovedBy,
		ApprovedAt:            request.ApprovedAt,
		MaintenanceTeamID:     request.MaintenanceTeamID,
		AssignedTechnicianID:  request.AssignedTechnicianID,
		Duration:              request.Duration,
		TechnicianDescription: request.TechnicianDescription,
		CompletedAt:           request.CompletedAt,
		UserFeedback:          request.UserFeedback,
		FeedbackRating:        request.FeedbackRating,
		EditApprovedAt:        request.EditApprovedAt,
		EditRejectedAt:        request.EditRejectedAt,
		Version:               request.Version,
		CreatedAt:             request.CreatedAt,
		UpdatedAt:             request.UpdatedAt,
	}
	if request.EditApprovalStatus != nil {
		status := string(*request.EditApprovalStatus)
		response.EditApprovalStatus = &status
	}
	if request.PendingEdit != nil {
		response.PendingEdit = &PendingEditResponse{
			Subject:       request.PendingEdit.Subject,
			Description:   request.PendingEdit.Description,
			EquipmentID:   request.PendingEdit.EquipmentID,
			EquipmentName: request.PendingEdit.EquipmentName,
			ScheduledDate: request.PendingEdit.ScheduledDate,
			Duration:      request.PendingEdit.Duration,
			RequestedAt:   request.PendingEdit.RequestedAt,
		}
	}
	return response
}

// NewHistoryEntryResponse maps an audit entry.
func NewHistoryEntryResponse(entry domain.RequestHistory) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:          entry.ID,
		ChangedBy:   entry.ChangedBy,
		ChangedRole: entry.ChangedRole,
		ChangeType:  string(entry.ChangeType),
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		CreatedAt:   entry.CreatedAt,
	}
}
