package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// EquipmentService manages the equipment registry. Writes are
// manager-gated at the router.
type EquipmentService struct {
	equipment repository.EquipmentRepository
	requests  repository.RequestRepository
	logger    *zap.Logger
}

// NewEquipmentService constructs the service.
func NewEquipmentService(equipment repository.EquipmentRepository, requests repository.RequestRepository, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{equipment: equipment, requests: requests, logger: logger}
}

// Create registers equipment. Serial numbers are unique.
func (s *EquipmentService) Create(ctx context.Context, input *domain.Equipment) (*domain.Equipment, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.SerialNumber) == "" {
		return nil, apperrors.NewValidationError("name and serial number are required",
			map[string]any{"name": input.Name, "serial_number": input.SerialNumber})
	}
	if existing, err := s.equipment.GetBySerialNumber(ctx, input.SerialNumber); err == nil {
		return nil, apperrors.NewConflict("serial number already registered",
			map[string]any{"serial_number": input.SerialNumber, "equipment_id": existing.ID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if err := s.equipment.Create(ctx, input); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("equipment registered",
		zap.String("equipment_id", input.ID),
		zap.String("serial_number", input.SerialNumber))
	return input, nil
}

// Update modifies an equipment record.
func (s *EquipmentService) Update(ctx context.Context, equipmentID string, update *domain.Equipment) (*domain.Equipment, error) {
	existing, err := s.Get(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if update.SerialNumber != "" && update.SerialNumber != existing.SerialNumber {
		if other, err := s.equipment.GetBySerialNumber(ctx, update.SerialNumber); err == nil && other.ID != equipmentID {
			return nil, apperrors.NewConflict("serial number already registered",
				map[string]any{"serial_number": update.SerialNumber})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		existing.SerialNumber = update.SerialNumber
	}
	if update.Name != "" {
		existing.Name = update.Name
	}
	if update.Location != "" {
		existing.Location = update.Location
	}
	if update.Department != "" {
		existing.Department = update.Department
	}
	if update.Category != "" {
		existing.Category = update.Category
	}
	if update.PurchaseDate != nil {
		existing.PurchaseDate = update.PurchaseDate
	}
	if update.WarrantyInfo != "" {
		existing.WarrantyInfo = update.WarrantyInfo
	}
	if update.AssignedEmployeeID != nil {
		existing.AssignedEmployeeID = update.AssignedEmployeeID
	}
	if update.DefaultMaintenanceTeamID != nil {
		existing.DefaultMaintenanceTeamID = update.DefaultMaintenanceTeamID
	}

	if err := s.equipment.Update(ctx, existing); err != nil {
		return nil, apperrors.MapError(err)
	}
	return existing, nil
}

// Get fetches one equipment record.
func (s *EquipmentService) Get(ctx context.Context, equipmentID string) (*domain.Equipment, error) {
	equipment, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("equipment", map[string]any{"equipment_id": equipmentID})
		}
		return nil, apperrors.MapError(err)
	}
	return equipment, nil
}

// List pages through equipment.
func (s *EquipmentService) List(ctx context.Context, limit, offset int) ([]domain.Equipment, error) {
	result, err := s.equipment.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// RequestCount reports how many maintenance requests reference the
// equipment, for the registry detail view.
func (s *EquipmentService) RequestCount(ctx context.Context, equipmentID string) (int64, error) {
	if _, err := s.Get(ctx, equipmentID); err != nil {
		return 0, err
	}
	count, err := s.requests.CountByEquipment(ctx, equipmentID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// Delete removes an equipment record unless requests still reference it.
func (s *EquipmentService) Delete(ctx context.Context, equipmentID string) error {
	count, err := s.RequestCount(ctx, equipmentID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("equipment has maintenance requests and cannot be deleted",
			map[string]any{"equipment_id": equipmentID, "request_count": count})
	}
	if err := s.equipment.Delete(ctx, equipmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("equipment", map[string]any{"equipment_id": equipmentID})
		}
		return apperrors.MapError(err)
	}
	return nil
}
