package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

type requestTestEnv struct {
	service   *RequestService
	requests  *fakeRequestRepo
	users     *fakeUserRepo
	teams     *fakeTeamRepo
	equipment *fakeEquipmentRepo
	history   *fakeHistoryRepo

	author     domain.Identity
	technician domain.Identity
	peerTech   domain.Identity
	manager    domain.Identity
	teamID     string
	equipID    string
}

func newRequestTestEnv(t *testing.T) *requestTestEnv {
	t.Helper()
	ctx := context.Background()

	env := &requestTestEnv{
		requests:  newFakeRequestRepo(),
		users:     newFakeUserRepo(),
		teams:     newFakeTeamRepo(),
		equipment: newFakeEquipmentRepo(),
		history:   newFakeHistoryRepo(),
	}

	seed := func(name string, role domain.Role) domain.Identity {
		user := &domain.User{Name: name, Email: name + "@example.com", Role: role}
		require.NoError(t, env.users.Create(ctx, user))
		return user.Identity()
	}
	env.author = seed("alice", domain.RoleUser)
	env.technician = seed("tom", domain.RoleTechnician)
	env.peerTech = seed("tara", domain.RoleTechnician)
	env.manager = seed("mary", domain.RoleManager)

	team := &domain.Team{Name: "mechanical", MemberIDs: []string{env.technician.ID}}
	require.NoError(t, env.teams.Create(ctx, team))
	env.teamID = team.ID

	equip := &domain.Equipment{Name: "press", SerialNumber: "SN-100"}
	require.NoError(t, env.equipment.Create(ctx, equip))
	env.equipID = equip.ID

	env.service = NewRequestService(RequestServiceDeps{
		Requests:   env.requests,
		Users:      env.users,
		Teams:      env.teams,
		Equipment:  env.equipment,
		History:    env.history,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	return env
}

func (env *requestTestEnv) createRequest(t *testing.T) *domain.MaintenanceRequest {
	t.Helper()
	request, err := env.service.Create(context.Background(), env.author, CreateRequestInput{
		Subject:       "press is leaking oil",
		Description:   "hydraulic leak near the base",
		EquipmentID:   &env.equipID,
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return request
}

func (env *requestTestEnv) assignedRequest(t *testing.T) *domain.MaintenanceRequest {
	t.Helper()
	ctx := context.Background()
	request := env.createRequest(t)
	_, err := env.service.Approve(ctx, env.manager, request.ID, env.teamID)
	require.NoError(t, err)
	request, err = env.service.AcceptTask(ctx, env.technician, request.ID)
	require.NoError(t, err)
	return request
}

func (env *requestTestEnv) completedRequest(t *testing.T) *domain.MaintenanceRequest {
	t.Helper()
	ctx := context.Background()
	request := env.assignedRequest(t)
	_, err := env.service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusInProgress,
	})
	require.NoError(t, err)
	duration := 2.5
	note := "replaced the seal"
	request, err = env.service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus:             domain.RequestStatusRepaired,
		Duration:              &duration,
		TechnicianDescription: &note,
	})
	require.NoError(t, err)
	return request
}

func TestCreateRequest(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)

	assert.Equal(t, domain.RequestStatusPending, request.Status)
	assert.Equal(t, env.author.ID, request.CreatedBy)
	assert.NotEmpty(t, request.ID)
	assert.Nil(t, request.ApprovedBy)

	entries, err := env.history.ListByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypeStatus, entries[0].ChangeType)
}

func TestCreateRequestManagerForbidden(t *testing.T) {
	env := newRequestTestEnv(t)
	_, err := env.service.Create(context.Background(), env.manager, CreateRequestInput{
		Subject:       "inspection",
		EquipmentID:   &env.equipID,
		RequestType:   domain.RequestTypePreventive,
		ScheduledDate: time.Now(),
	})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))
}

func TestCreateRequestEquipmentExclusivity(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	name := "old lathe"

	_, err := env.service.Create(ctx, env.author, CreateRequestInput{
		Subject:       "noisy bearings",
		EquipmentID:   &env.equipID,
		EquipmentName: &name,
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now(),
	})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = env.service.Create(ctx, env.author, CreateRequestInput{
		Subject:       "noisy bearings",
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now(),
	})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	request, err := env.service.Create(ctx, env.author, CreateRequestInput{
		Subject:       "noisy bearings",
		EquipmentName: &name,
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Nil(t, request.EquipmentID)
	require.NotNil(t, request.EquipmentName)
	assert.Equal(t, name, *request.EquipmentName)
}

func TestApprove(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	_, err := env.service.Approve(ctx, env.author, request.ID, env.teamID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))

	_, err = env.service.Approve(ctx, env.manager, request.ID, "")
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = env.service.Approve(ctx, env.manager, request.ID, "team-missing")
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))

	approved, err := env.service.Approve(ctx, env.manager, request.ID, env.teamID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, env.manager.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.MaintenanceTeamID)
	assert.Equal(t, env.teamID, *approved.MaintenanceTeamID)

	// already approved
	_, err = env.service.Approve(ctx, env.manager, request.ID, env.teamID)
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))
}

func TestAcceptTask(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	_, err := env.service.AcceptTask(ctx, env.technician, request.ID)
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))

	_, err = env.service.Approve(ctx, env.manager, request.ID, env.teamID)
	require.NoError(t, err)

	_, err = env.service.AcceptTask(ctx, env.author, request.ID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))

	_, err = env.service.AcceptTask(ctx, env.peerTech, request.ID)
	assert.True(t, apperrors.HasCode(err, "NOT_TEAM_MEMBER"))

	accepted, err := env.service.AcceptTask(ctx, env.technician, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAssigned, accepted.Status)
	require.NotNil(t, accepted.AssignedTechnicianID)
	assert.Equal(t, env.technician.ID, *accepted.AssignedTechnicianID)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.completedRequest(t)

	assert.Equal(t, domain.RequestStatusRepaired, request.Status)
	assert.NotNil(t, request.CompletedAt)
	require.NotNil(t, request.Duration)
	assert.Equal(t, 2.5, *request.Duration)
	require.NotNil(t, request.TechnicianDescription)
	assert.Equal(t, "replaced the seal", *request.TechnicianDescription)
}

func TestUpdateStatusUserForbidden(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)
	_, err := env.service.UpdateStatus(context.Background(), env.author, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusApproved,
	})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))
}

func TestUpdateStatusInvalidTransitions(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	// skipping states is not allowed, even for the manager
	_, err := env.service.UpdateStatus(ctx, env.manager, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusInProgress,
	})
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))

	// technicians never self-assign through a raw status change
	_, err = env.service.Approve(ctx, env.manager, request.ID, env.teamID)
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusAssigned,
	})
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))
}

func TestUpdateStatusTerminalStates(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.completedRequest(t)

	for _, next := range []domain.RequestStatus{
		domain.RequestStatusPending,
		domain.RequestStatusInProgress,
		domain.RequestStatusScrap,
		domain.RequestStatusRejected,
	} {
		_, err := env.service.UpdateStatus(ctx, env.manager, request.ID, StatusUpdateInput{NewStatus: next})
		assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"), "repaired -> %s", next)
	}
}

func TestUpdateStatusOwnTaskOnly(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.assignedRequest(t)

	require.NoError(t, env.teams.AddMember(ctx, env.teamID, env.peerTech.ID))
	_, err := env.service.UpdateStatus(ctx, env.peerTech, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusInProgress,
	})
	assert.True(t, apperrors.HasCode(err, "NOT_ASSIGNED_ACTOR"))

	_, err = env.service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusInProgress,
	})
	assert.NoError(t, err)
}

func TestManagerRejectBranch(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()

	for _, prepare := range []func(*testing.T) *domain.MaintenanceRequest{
		env.createRequest,
		func(t *testing.T) *domain.MaintenanceRequest {
			request := env.createRequest(t)
			approved, err := env.service.Approve(ctx, env.manager, request.ID, env.teamID)
			require.NoError(t, err)
			return approved
		},
		env.assignedRequest,
	} {
		request := prepare(t)
		rejected, err := env.service.UpdateStatus(ctx, env.manager, request.ID, StatusUpdateInput{
			NewStatus: domain.RequestStatusRejected,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
		assert.Nil(t, rejected.CompletedAt)
	}

	// technicians have no rejected branch
	request := env.assignedRequest(t)
	_, err := env.service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusRejected,
	})
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))
}

func TestAddFeedback(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.completedRequest(t)

	_, err := env.service.AddFeedback(ctx, env.technician, request.ID, "nice work", nil)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ACTOR"))

	badRating := 6
	_, err = env.service.AddFeedback(ctx, env.author, request.ID, "nice work", &badRating)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	rating := 5
	updated, err := env.service.AddFeedback(ctx, env.author, request.ID, "quick and clean repair", &rating)
	require.NoError(t, err)
	require.NotNil(t, updated.UserFeedback)
	assert.Equal(t, "quick and clean repair", *updated.UserFeedback)
	require.NotNil(t, updated.FeedbackRating)
	assert.Equal(t, 5, *updated.FeedbackRating)
}

func TestAddFeedbackBeforeCompletion(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.assignedRequest(t)
	_, err := env.service.AddFeedback(context.Background(), env.author, request.ID, "too early", nil)
	assert.True(t, apperrors.HasCode(err, "INVALID_STATE"))
}

func TestProposeEditDirectApply(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	subject := "press leaking badly"
	updated, err := env.service.ProposeEdit(ctx, env.author, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: false,
	})
	require.NoError(t, err)
	assert.Equal(t, subject, updated.Subject)
	assert.Nil(t, updated.PendingEdit)
	assert.Nil(t, updated.EditApprovalStatus)
}

func TestProposeEditManagerAlwaysDirect(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)

	subject := "schedule moved"
	updated, err := env.service.ProposeEdit(context.Background(), env.manager, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: true,
	})
	require.NoError(t, err)
	assert.Equal(t, subject, updated.Subject)
	assert.Nil(t, updated.PendingEdit)
}

func TestProposeEditDeferred(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)
	originalSubject := request.Subject

	subject := "press leaking badly"
	updated, err := env.service.ProposeEdit(context.Background(), env.author, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: true,
	})
	require.NoError(t, err)
	assert.Equal(t, originalSubject, updated.Subject)
	require.NotNil(t, updated.PendingEdit)
	require.NotNil(t, updated.PendingEdit.Subject)
	assert.Equal(t, subject, *updated.PendingEdit.Subject)
	require.NotNil(t, updated.EditApprovalStatus)
	assert.Equal(t, domain.EditApprovalPending, *updated.EditApprovalStatus)
}

func TestProposeEditEquipmentExclusivity(t *testing.T) {
	env := newRequestTestEnv(t)
	name := "portable drill"
	_, err := env.service.ProposeEdit(context.Background(), env.author, env.createRequest(t).ID, EditInput{
		EquipmentID:   &env.equipID,
		EquipmentName: &name,
	})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestResolveEditApprove(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	subject := "press leaking badly"
	_, err := env.service.ProposeEdit(ctx, env.author, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: true,
	})
	require.NoError(t, err)

	_, err = env.service.ResolveEdit(ctx, env.author, request.ID, true)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))

	resolved, err := env.service.ResolveEdit(ctx, env.manager, request.ID, true)
	require.NoError(t, err)
	assert.Equal(t, subject, resolved.Subject)
	assert.Nil(t, resolved.PendingEdit)
	require.NotNil(t, resolved.EditApprovalStatus)
	assert.Equal(t, domain.EditApprovalApproved, *resolved.EditApprovalStatus)
	assert.NotNil(t, resolved.EditApprovedAt)

	_, err = env.service.ResolveEdit(ctx, env.manager, request.ID, true)
	assert.True(t, apperrors.HasCode(err, "NO_PENDING_EDIT"))
}

func TestResolveEditReject(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)
	originalSubject := request.Subject

	subject := "press leaking badly"
	_, err := env.service.ProposeEdit(ctx, env.author, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: true,
	})
	require.NoError(t, err)

	resolved, err := env.service.ResolveEdit(ctx, env.manager, request.ID, false)
	require.NoError(t, err)
	assert.Equal(t, originalSubject, resolved.Subject)
	assert.Nil(t, resolved.PendingEdit)
	require.NotNil(t, resolved.EditApprovalStatus)
	assert.Equal(t, domain.EditApprovalRejected, *resolved.EditApprovalStatus)
	assert.NotNil(t, resolved.EditRejectedAt)

	// the cycle can restart after rejection
	_, err = env.service.ProposeEdit(ctx, env.author, request.ID, EditInput{
		Subject:          &subject,
		RequiresApproval: true,
	})
	assert.NoError(t, err)
}

func TestEditSwitchesEquipmentReference(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)

	name := "legacy boiler"
	updated, err := env.service.ProposeEdit(context.Background(), env.author, request.ID, EditInput{
		EquipmentName: &name,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.EquipmentID)
	require.NotNil(t, updated.EquipmentName)
	assert.Equal(t, name, *updated.EquipmentName)
}

func TestDeleteManagerOnly(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t)

	err := env.service.Delete(ctx, env.technician, request.ID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN_ROLE"))

	require.NoError(t, env.service.Delete(ctx, env.manager, request.ID))

	err = env.service.Delete(ctx, env.manager, request.ID)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestVersionConflictSurfacesAsConflict(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.createRequest(t)

	stale := &staleRequestRepo{fakeRequestRepo: env.requests, conflicts: 1}
	service := NewRequestService(RequestServiceDeps{
		Requests: stale,
		Users:    env.users,
		Teams:    env.teams,
	})

	_, err := service.Approve(context.Background(), env.manager, request.ID, env.teamID)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestListExcludesManagerRequests(t *testing.T) {
	env := newRequestTestEnv(t)
	ctx := context.Background()
	env.createRequest(t)

	// legacy row authored by the manager bypassing the service guard
	managerRequest := &domain.MaintenanceRequest{
		Subject:       "migrated entry",
		EquipmentID:   &env.equipID,
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now(),
		Status:        domain.RequestStatusPending,
		CreatedBy:     env.manager.ID,
	}
	require.NoError(t, env.requests.Create(ctx, managerRequest))

	result, err := env.service.List(ctx, RequestListFilter{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, env.author.ID, result[0].CreatedBy)
}

func TestGetResolvesReferences(t *testing.T) {
	env := newRequestTestEnv(t)
	request := env.assignedRequest(t)

	resolved, err := env.service.Get(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.CreatedBy)
	assert.Equal(t, env.author.ID, resolved.CreatedBy.ID)
	require.NotNil(t, resolved.Technician)
	assert.Equal(t, env.technician.ID, resolved.Technician.ID)
	require.NotNil(t, resolved.Team)
	assert.Equal(t, env.teamID, resolved.Team.ID)
	require.NotNil(t, resolved.Equipment)
	assert.Equal(t, env.equipID, resolved.Equipment.ID)
	assert.NotEmpty(t, resolved.History)
}

func TestEventsPublished(t *testing.T) {
	env := newRequestTestEnv(t)
	dispatcher := events.NewInMemoryDispatcher()
	var seen []events.EventType
	for _, eventType := range []events.EventType{
		events.EventRequestCreated,
		events.EventRequestApproved,
		events.EventTaskAccepted,
		events.EventRequestStatusChanged,
	} {
		eventType := eventType
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			seen = append(seen, event.Type)
			return nil
		})
	}

	service := NewRequestService(RequestServiceDeps{
		Requests:   env.requests,
		Users:      env.users,
		Teams:      env.teams,
		Equipment:  env.equipment,
		History:    env.history,
		Dispatcher: dispatcher,
	})

	ctx := context.Background()
	request, err := service.Create(ctx, env.author, CreateRequestInput{
		Subject:       "conveyor belt slipping",
		EquipmentID:   &env.equipID,
		RequestType:   domain.RequestTypeCorrective,
		ScheduledDate: time.Now(),
	})
	require.NoError(t, err)
	_, err = service.Approve(ctx, env.manager, request.ID, env.teamID)
	require.NoError(t, err)
	_, err = service.AcceptTask(ctx, env.technician, request.ID)
	require.NoError(t, err)
	_, err = service.UpdateStatus(ctx, env.technician, request.ID, StatusUpdateInput{
		NewStatus: domain.RequestStatusInProgress,
	})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventRequestCreated,
		events.EventRequestApproved,
		events.EventTaskAccepted,
		events.EventRequestStatusChanged,
	}, seen)
}
