// Package lifecycle holds the pure state machine for maintenance requests:
// the role-keyed status transition tables and the authorization predicates
// the request service evaluates before mutating anything. Nothing here
// touches storage or transport.
package lifecycle

import "github.com/spec-kit/maintenance-service/internal/domain"

// managerTransitions covers the manager column of the transition table,
// including the rejected branch out of every pre-completion state.
var managerTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.RequestStatusPending:    {domain.RequestStatusApproved, domain.RequestStatusRejected},
	domain.RequestStatusApproved:   {domain.RequestStatusAssigned, domain.RequestStatusRejected},
	domain.RequestStatusAssigned:   {domain.RequestStatusInProgress, domain.RequestStatusRejected},
	domain.RequestStatusInProgress: {domain.RequestStatusRepaired, domain.RequestStatusScrap},
	domain.RequestStatusRepaired:   {},
	domain.RequestStatusScrap:      {},
	domain.RequestStatusRejected:   {},
}

// technicianTransitions covers the technician column. approved→assigned is
// deliberately absent: technicians reach assigned only through AcceptTask.
var technicianTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.RequestStatusAssigned:   {domain.RequestStatusInProgress},
	domain.RequestStatusInProgress: {domain.RequestStatusRepaired, domain.RequestStatusScrap},
	domain.RequestStatusRepaired:   {},
	domain.RequestStatusScrap:      {},
	domain.RequestStatusRejected:   {},
}

// TransitionTable returns the allowed transitions for a role. Plain users
// have no transition rights at all.
func TransitionTable(role domain.Role) map[domain.RequestStatus][]domain.RequestStatus {
	switch role {
	case domain.RoleManager:
		return managerTransitions
	case domain.RoleTechnician:
		return technicianTransitions
	default:
		return nil
	}
}

// CanTransition reports whether role may move a request from current to next.
func CanTransition(role domain.Role, current, next domain.RequestStatus) bool {
	table := TransitionTable(role)
	for _, candidate := range table[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func Terminal(status domain.RequestStatus) bool {
	switch status {
	case domain.RequestStatusRepaired, domain.RequestStatusScrap, domain.RequestStatusRejected:
		return true
	}
	return false
}

// CompletionStatus reports whether status represents finished work.
func CompletionStatus(status domain.RequestStatus) bool {
	return status == domain.RequestStatusRepaired || status == domain.RequestStatusScrap
}

// CanCreate: managers approve requests, they never originate them.
func CanCreate(role domain.Role) bool {
	return role == domain.RoleUser || role == domain.RoleTechnician
}

// CanApprove gates the pending→approved transition with team assignment.
func CanApprove(role domain.Role) bool {
	return role == domain.RoleManager
}

// CanAcceptTask gates the approved→assigned self-assignment.
func CanAcceptTask(role domain.Role) bool {
	return role == domain.RoleTechnician
}

// IsAssignedActor reports whether actor owns the request's task. A
// technician may never update a peer's task, even within the same team.
func IsAssignedActor(request *domain.MaintenanceRequest, actorID string) bool {
	return request.AssignedTechnicianID != nil && *request.AssignedTechnicianID == actorID
}

// IsAuthor reports whether actor created the request; authors own edit
// rights pre-approval and feedback rights post-completion.
func IsAuthor(request *domain.MaintenanceRequest, actorID string) bool {
	return request.CreatedBy == actorID
}

// CanAddFeedback gates feedback to the author of a completed request.
func CanAddFeedback(request *domain.MaintenanceRequest, actorID string) bool {
	return IsAuthor(request, actorID) && request.Completed()
}

// EditRequiresApproval decides whether a proposed edit is stored as a
// pending overlay instead of being applied directly. Managers always edit
// in place; everyone else defers to the caller-supplied flag.
func EditRequiresApproval(role domain.Role, requiresApproval bool) bool {
	return requiresApproval && role != domain.RoleManager
}

// ValidRating bounds feedback ratings to the 1–5 scale.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
