package domain

import "time"

// RequestChangeType captures what changed in a history entry.
type RequestChangeType string

const (
	ChangeTypeStatus       RequestChangeType = "STATUS_CHANGE"
	ChangeTypeApproval     RequestChangeType = "APPROVAL"
	ChangeTypeAssignment   RequestChangeType = "ASSIGNMENT"
	ChangeTypeEditProposed RequestChangeType = "EDIT_PROPOSED"
	ChangeTypeEditResolved RequestChangeType = "EDIT_RESOLVED"
	ChangeTypeFeedback     RequestChangeType = "FEEDBACK"
)

// RequestHistory is an immutable audit trail entry for a request.
type RequestHistory struct {
	ID          string
	RequestID   string
	ChangedBy   string
	ChangedRole Role
	ChangeType  RequestChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
