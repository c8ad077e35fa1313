package domain

import "time"

// RequestStatus enumerates lifecycle states for maintenance requests.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in-progress"
	RequestStatusRepaired   RequestStatus = "repaired"
	RequestStatusScrap      RequestStatus = "scrap"
	RequestStatusRejected   RequestStatus = "rejected"
)

// RequestType distinguishes corrective from preventive maintenance.
type RequestType string

const (
	RequestTypeCorrective RequestType = "corrective"
	RequestTypePreventive RequestType = "preventive"
)

// EditApprovalStatus tracks the pending-edit overlay resolution.
type EditApprovalStatus string

const (
	EditApprovalPending  EditApprovalStatus = "pending"
	EditApprovalApproved EditApprovalStatus = "approved"
	EditApprovalRejected EditApprovalStatus = "rejected"
)

// PendingEdit is a proposed partial update awaiting manager resolution.
// Nil fields are left untouched when the edit is applied. The request type
// is immutable after creation and therefore not editable.
type PendingEdit struct {
	Subject       *string    `json:"subject,omitempty"`
	Description   *string    `json:"description,omitempty"`
	EquipmentID   *string    `json:"equipment_id,omitempty"`
	EquipmentName *string    `json:"equipment_name,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Duration      *float64   `json:"duration,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
}

// MaintenanceRequest is the aggregate for maintenance tickets.
// Exactly one of EquipmentID/EquipmentName is set at creation.
type MaintenanceRequest struct {
	ID                    string
	Subject               string
	Description           string
	EquipmentID           *string
	EquipmentName         *string
	RequestType           RequestType
	ScheduledDate         time.Time
	Status                RequestStatus
	CreatedBy             string
	ApprovedBy            *string
	ApprovedAt            *time.Time
	MaintenanceTeamID     *string
	AssignedTechnicianID  *string
	Duration              *float64
	TechnicianDescription *string
	CompletedAt           *time.Time
	UserFeedback          *string
	FeedbackRating        *int
	PendingEdit           *PendingEdit
	EditApprovalStatus    *EditApprovalStatus
	EditApprovedAt        *time.Time
	EditRejectedAt        *time.Time
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Completed reports whether the request reached a completion state.
func (r *MaintenanceRequest) Completed() bool {
	return r.Status == RequestStatusRepaired || r.Status == RequestStatusScrap
}

// ApplyEdit merges the non-nil fields of a pending edit into the request.
func (r *MaintenanceRequest) ApplyEdit(edit *PendingEdit) {
	if edit == nil {
		return
	}
	if edit.Subject != nil {
		r.Subject = *edit.Subject
	}
	if edit.Description != nil {
		r.Description = *edit.Description
	}
	if edit.EquipmentID != nil {
		r.EquipmentID = edit.EquipmentID
		r.EquipmentName = nil
	}
	if edit.EquipmentName != nil {
		r.EquipmentName = edit.EquipmentName
		r.EquipmentID = nil
	}
	if edit.ScheduledDate != nil {
		r.ScheduledDate = *edit.ScheduledDate
	}
	if edit.Duration != nil {
		r.Duration = edit.Duration
	}
}
