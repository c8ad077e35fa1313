package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ErrVersionConflict is returned when a compare-and-swap update loses the
// race against a concurrent writer.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter captures listing parameters.
type RequestFilter struct {
	EquipmentID     *string
	Statuses        []domain.RequestStatus
	RequestType     *domain.RequestType
	TeamID          *string
	CreatedBy       *string
	AssignedTechID  *string
	ExcludeCreators []string
	Limit           int
	Offset          int
}

// RequestRepository encapsulates maintenance request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.MaintenanceRequest) error
	// Update persists the request conditioned on the version it was read
	// at; a stale version yields ErrVersionConflict.
	Update(ctx context.Context, request *domain.MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, error)
	CountByEquipment(ctx context.Context, equipmentID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, subject, description, equipment_id, equipment_name, request_type,
               scheduled_date, status, created_by, approved_by, approved_at,
               maintenance_team_id, assigned_technician_id, duration, technician_description,
               completed_at, user_feedback, feedback_rating, pending_edit, edit_approval_status,
               edit_approved_at, edit_rejected_at, version, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.MaintenanceRequest) error {
	const query = `
        INSERT INTO maintenance_requests
            (subject, description, equipment_id, equipment_name, request_type, scheduled_date,
             status, created_by, approved_by, approved_at, maintenance_team_id,
             assigned_technician_id, duration, technician_description, completed_at,
             user_feedback, feedback_rating, pending_edit, edit_approval_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.Subject,
		request.Description,
		request.EquipmentID,
		request.EquipmentName,
		request.RequestType,
		request.ScheduledDate,
		request.Status,
		request.CreatedBy,
		request.ApprovedBy,
		request.ApprovedAt,
		request.MaintenanceTeamID,
		request.AssignedTechnicianID,
		request.Duration,
		request.TechnicianDescription,
		request.CompletedAt,
		request.UserFeedback,
		request.FeedbackRating,
		request.PendingEdit,
		request.EditApprovalStatus,
	).Scan(&request.ID, &request.Version, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.MaintenanceRequest) error {
	const query = `
        UPDATE maintenance_requests SET
            subject=$1, description=$2, equipment_id=$3, equipment_name=$4,
            scheduled_date=$5, status=$6, approved_by=$7, approved_at=$8,
            maintenance_team_id=$9, assigned_technician_id=$10, duration=$11,
            technician_description=$12, completed_at=$13, user_feedback=$14,
            feedback_rating=$15, pending_edit=$16, edit_approval_status=$17,
            edit_approved_at=$18, edit_rejected_at=$19,
            version=version+1, updated_at=NOW()
        WHERE id=$20 AND version=$21`
	cmd, err := r.pool.Exec(ctx, query,
		request.Subject,
		request.Description,
		request.EquipmentID,
		request.EquipmentName,
		request.ScheduledDate,
		request.Status,
		request.ApprovedBy,
		request.ApprovedAt,
		request.MaintenanceTeamID,
		request.AssignedTechnicianID,
		request.Duration,
		request.TechnicianDescription,
		request.CompletedAt,
		request.UserFeedback,
		request.FeedbackRating,
		request.PendingEdit,
		request.EditApprovalStatus,
		request.EditApprovedAt,
		request.EditRejectedAt,
		request.ID,
		request.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM maintenance_requests WHERE id=$1)`,
			request.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	request.Version++
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id=$1`
	var request domain.MaintenanceRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(requestFields(&request)...); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, error) {
	base := `SELECT ` + requestColumns + ` FROM maintenance_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EquipmentID != nil {
		args = append(args, *filter.EquipmentID)
		clauses = append(clauses, fmt.Sprintf("equipment_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RequestType != nil {
		args = append(args, *filter.RequestType)
		clauses = append(clauses, fmt.Sprintf("request_type=$%d", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		clauses = append(clauses, fmt.Sprintf("maintenance_team_id=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssignedTechID != nil {
		args = append(args, *filter.AssignedTechID)
		clauses = append(clauses, fmt.Sprintf("assigned_technician_id=$%d", len(args)))
	}
	for _, creator := range filter.ExcludeCreators {
		args = append(args, creator)
		clauses = append(clauses, fmt.Sprintf("created_by<>$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) CountByEquipment(ctx context.Context, equipmentID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM maintenance_requests WHERE equipment_id=$1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, equipmentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM maintenance_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func requestFields(request *domain.MaintenanceRequest) []any {
	return []any{
		&request.ID,
		&request.Subject,
		&request.Description,
		&request.EquipmentID,
		&request.EquipmentName,
		&request.RequestType,
		&request.ScheduledDate,
		&request.Status,
		&request.CreatedBy,
		&request.ApprovedBy,
		&request.ApprovedAt,
		&request.MaintenanceTeamID,
		&request.AssignedTechnicianID,
		&request.Duration,
		&request.TechnicianDescription,
		&request.CompletedAt,
		&request.UserFeedback,
		&request.FeedbackRating,
		&request.PendingEdit,
		&request.EditApprovalStatus,
		&request.EditApprovedAt,
		&request.EditRejectedAt,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	}
}

func scanRequests(rows pgx.Rows) ([]domain.MaintenanceRequest, error) {
	var result []domain.MaintenanceRequest
	for rows.Next() {
		var request domain.MaintenanceRequest
		if err := rows.Scan(requestFields(&request)...); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
