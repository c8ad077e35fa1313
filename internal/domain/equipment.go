package domain

import "time"

// Equipment is a registered asset maintenance requests are filed against.
type Equipment struct {
	ID                       string
	Name                     string
	SerialNumber             string
	Location                 string
	Department               string
	Category                 string
	PurchaseDate             *time.Time
	WarrantyInfo             string
	AssignedEmployeeID       *string
	DefaultMaintenanceTeamID *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
