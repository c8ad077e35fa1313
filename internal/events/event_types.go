package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestApproved      EventType = "request_approved"
	EventTaskAccepted         EventType = "task_accepted"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventEditProposed         EventType = "request_edit_proposed"
	EventEditResolved         EventType = "request_edit_resolved"
	EventFeedbackAdded        EventType = "request_feedback_added"
	EventRequestDeleted       EventType = "request_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Subject       string             `json:"subject"`
	RequestType   domain.RequestType `json:"request_type"`
	EquipmentID   *string            `json:"equipment_id,omitempty"`
	EquipmentName *string            `json:"equipment_name,omitempty"`
	ScheduledDate time.Time          `json:"scheduled_date"`
}

// RequestApprovedPayload payload.
type RequestApprovedPayload struct {
	TeamID     string `json:"team_id"`
	ApprovedBy string `json:"approved_by"`
}

// TaskAcceptedPayload payload.
type TaskAcceptedPayload struct {
	TechnicianID string `json:"technician_id"`
	TeamID       string `json:"team_id"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// EditProposedPayload payload.
type EditProposedPayload struct {
	ProposedBy  string    `json:"proposed_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// EditResolvedPayload payload.
type EditResolvedPayload struct {
	Approved   bool   `json:"approved"`
	ResolvedBy string `json:"resolved_by"`
}

// FeedbackAddedPayload payload.
type FeedbackAddedPayload struct {
	Rating  *int   `json:"rating,omitempty"`
	Preview string `json:"preview"`
}
