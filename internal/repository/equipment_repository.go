package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EquipmentRepository manages persistence for registered equipment.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) error
	Update(ctx context.Context, equipment *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	GetBySerialNumber(ctx context.Context, serial string) (*domain.Equipment, error)
	List(ctx context.Context, limit, offset int) ([]domain.Equipment, error)
	Delete(ctx context.Context, id string) error
}

type equipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository constructs repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{pool: pool}
}

const equipmentColumns = `id, name, serial_number, location, department, category,
               purchase_date, warranty_info, assigned_employee_id, default_team_id,
               created_at, updated_at`

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        INSERT INTO equipment
            (name, serial_number, location, department, category, purchase_date,
             warranty_info, assigned_employee_id, default_team_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		equipment.Name,
		equipment.SerialNumber,
		equipment.Location,
		equipment.Department,
		equipment.Category,
		equipment.PurchaseDate,
		equipment.WarrantyInfo,
		equipment.AssignedEmployeeID,
		equipment.DefaultMaintenanceTeamID,
	).Scan(&equipment.ID, &equipment.CreatedAt, &equipment.UpdatedAt)
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        UPDATE equipment SET
            name=$1, serial_number=$2, location=$3, department=$4, category=$5,
            purchase_date=$6, warranty_info=$7, assigned_employee_id=$8, default_team_id=$9,
            updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		equipment.Name,
		equipment.SerialNumber,
		equipment.Location,
		equipment.Department,
		equipment.Category,
		equipment.PurchaseDate,
		equipment.WarrantyInfo,
		equipment.AssignedEmployeeID,
		equipment.DefaultMaintenanceTeamID,
		equipment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *equipmentRepository) GetBySerialNumber(ctx context.Context, serial string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE serial_number=$1`
	return r.fetchSingle(ctx, query, serial)
}

func (r *equipmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Equipment, error) {
	var equipment domain.Equipment
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.SerialNumber,
		&equipment.Location,
		&equipment.Department,
		&equipment.Category,
		&equipment.PurchaseDate,
		&equipment.WarrantyInfo,
		&equipment.AssignedEmployeeID,
		&equipment.DefaultMaintenanceTeamID,
		&equipment.CreatedAt,
		&equipment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *equipmentRepository) List(ctx context.Context, limit, offset int) ([]domain.Equipment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		var equipment domain.Equipment
		if err := rows.Scan(
			&equipment.ID,
			&equipment.Name,
			&equipment.SerialNumber,
			&equipment.Location,
			&equipment.Department,
			&equipment.Category,
			&equipment.PurchaseDate,
			&equipment.WarrantyInfo,
			&equipment.AssignedEmployeeID,
			&equipment.DefaultMaintenanceTeamID,
			&equipment.CreatedAt,
			&equipment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, equipment)
	}
	return result, rows.Err()
}

func (r *equipmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
