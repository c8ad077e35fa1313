package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]domain.MaintenanceRequest
	seq      int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]domain.MaintenanceRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	request.ID = fmt.Sprintf("req-%d", f.seq)
	request.Version = 1
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	f.requests[request.ID] = *request
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, request *domain.MaintenanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[request.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != request.Version {
		return repository.ErrVersionConflict
	}
	request.Version++
	request.UpdatedAt = time.Now()
	f.requests[request.ID] = *request
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.MaintenanceRequest
outer:
	for _, request := range f.requests {
		for _, creator := range filter.ExcludeCreators {
			if request.CreatedBy == creator {
				continue outer
			}
		}
		if filter.CreatedBy != nil && request.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.EquipmentID != nil && (request.EquipmentID == nil || *request.EquipmentID != *filter.EquipmentID) {
			continue
		}
		if filter.RequestType != nil && request.RequestType != *filter.RequestType {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if request.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, request)
	}
	return result, nil
}

func (f *fakeRequestRepo) CountByEquipment(_ context.Context, equipmentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, request := range f.requests {
		if request.EquipmentID != nil && *request.EquipmentID == equipmentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.requests, id)
	return nil
}

// staleRequestRepo simulates a concurrent writer bumping the version
// between the service's read and write.
type staleRequestRepo struct {
	*fakeRequestRepo
	conflicts int
}

func (f *staleRequestRepo) Update(ctx context.Context, request *domain.MaintenanceRequest) error {
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrVersionConflict
	}
	return f.fakeRequestRepo.Update(ctx, request)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			result := user
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, user := range f.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[string]domain.Team
	seq   int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[string]domain.Team{}}
}

func (f *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	team.ID = fmt.Sprintf("team-%d", f.seq)
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	f.teams[team.ID] = *team
	return nil
}

func (f *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[team.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.teams[team.ID] = *team
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeTeamRepo) List(_ context.Context, _, _ int) ([]domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Team
	for _, team := range f.teams {
		result = append(result, team)
	}
	return result, nil
}

func (f *fakeTeamRepo) AddMember(_ context.Context, teamID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !team.HasMember(userID) {
		team.MemberIDs = append(team.MemberIDs, userID)
		f.teams[teamID] = team
	}
	return nil
}

func (f *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	members := team.MemberIDs[:0]
	for _, id := range team.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	team.MemberIDs = members
	f.teams[teamID] = team
	return nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.teams, id)
	return nil
}

type fakeEquipmentRepo struct {
	mu        sync.Mutex
	equipment map[string]domain.Equipment
	seq       int
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{equipment: map[string]domain.Equipment{}}
}

func (f *fakeEquipmentRepo) Create(_ context.Context, equipment *domain.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	equipment.ID = fmt.Sprintf("equip-%d", f.seq)
	equipment.CreatedAt = time.Now()
	equipment.UpdatedAt = equipment.CreatedAt
	f.equipment[equipment.ID] = *equipment
	return nil
}

func (f *fakeEquipmentRepo) Update(_ context.Context, equipment *domain.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.equipment[equipment.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.equipment[equipment.ID] = *equipment
	return nil
}

func (f *fakeEquipmentRepo) GetByID(_ context.Context, id string) (*domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.equipment[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := stored
	return &result, nil
}

func (f *fakeEquipmentRepo) GetBySerialNumber(_ context.Context, serial string) (*domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, equipment := range f.equipment {
		if equipment.SerialNumber == serial {
			result := equipment
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEquipmentRepo) List(_ context.Context, _, _ int) ([]domain.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Equipment
	for _, equipment := range f.equipment {
		result = append(result, equipment)
	}
	return result, nil
}

func (f *fakeEquipmentRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.equipment[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.equipment, id)
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.RequestHistory
	seq     int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (f *fakeHistoryRepo) Create(_ context.Context, history *domain.RequestHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	history.ID = fmt.Sprintf("hist-%d", f.seq)
	history.CreatedAt = time.Now()
	f.entries = append(f.entries, *history)
	return nil
}

func (f *fakeHistoryRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.RequestHistory
	for _, entry := range f.entries {
		if entry.RequestID == requestID {
			result = append(result, entry)
		}
	}
	return result, nil
}
