package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EquipmentPayload payload for create/update.
type EquipmentPayload struct {
	Name                     string     `json:"name"`
	SerialNumber             string     `json:"serial_number"`
	Location                 string     `json:"location"`
	Department               string     `json:"department"`
	Category                 string     `json:"category"`
	PurchaseDate             *time.Time `json:"purchase_date"`
	WarrantyInfo             string     `json:"warranty_info"`
	AssignedEmployeeID       *string    `json:"assigned_employee_id"`
	DefaultMaintenanceTeamID *string    `json:"default_maintenance_team_id"`
}

// EquipmentResponse is the wire form of an equipment record.
type EquipmentResponse struct {
	ID                       string     `json:"id"`
	Name                     string     `json:"name"`
	SerialNumber             string     `json:"serial_number"`
	Location                 string     `json:"location"`
	Department               string     `json:"department"`
	Category                 string     `json:"category"`
	PurchaseDate             *time.Time `json:"purchase_date"`
	WarrantyInfo             string     `json:"warranty_info"`
	AssignedEmployeeID       *string    `json:"assigned_employee_id"`
	DefaultMaintenanceTeamID *string    `json:"default_maintenance_team_id"`
	RequestCount             *int64     `json:"request_count,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// ToEquipment maps the payload onto the domain model.
func (p EquipmentPayload) ToEquipment() *domain.Equipment {
	return &domain.Equipment{
		Name:                     p.Name,
		SerialNumber:             p.SerialNumber,
		Location:                 p.Location,
		Department:               p.Department,
		Category:                 p.Category,
		PurchaseDate:             p.PurchaseDate,
		WarrantyInfo:             p.WarrantyInfo,
		AssignedEmployeeID:       p.AssignedEmployeeID,
		DefaultMaintenanceTeamID: p.DefaultMaintenanceTeamID,
	}
}

// NewEquipmentResponse maps an equipment record.
func NewEquipmentResponse(equipment *domain.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:                       equipment.ID,
		Name:                     equipment.Name,
		SerialNumber:             equipment.SerialNumber,
		Location:                 equipment.Location,
		Department:               equipment.Department,
		Category:                 equipment.Category,
		PurchaseDate:             equipment.PurchaseDate,
		WarrantyInfo:             equipment.WarrantyInfo,
		AssignedEmployeeID:       equipment.AssignedEmployeeID,
		DefaultMaintenanceTeamID: equipment.DefaultMaintenanceTeamID,
		CreatedAt:                equipment.CreatedAt,
		UpdatedAt:                equipment.UpdatedAt,
	}
}
