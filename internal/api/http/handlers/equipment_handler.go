package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// EquipmentHandler manages the equipment registry endpoints.
type EquipmentHandler struct {
	service *service.EquipmentService
}

// NewEquipmentHandler constructs handler.
func NewEquipmentHandler(equipmentService *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: equipmentService}
}

// Create POST /equipment.
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	var req dto.EquipmentPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	equipment, err := h.service.Create(c.Context(), req.ToEquipment())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewEquipmentResponse(equipment)})
}

// List GET /equipment.
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	result, err := h.service.List(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.EquipmentResponse, 0, len(result))
	for i := range result {
		items = append(items, dto.NewEquipmentResponse(&result[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /equipment/:id.
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	equipment, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	response := dto.NewEquipmentResponse(equipment)
	if count, err := h.service.RequestCount(c.Context(), equipment.ID); err == nil {
		response.RequestCount = &count
	}
	return c.JSON(fiber.Map{"data": response})
}

// Update PATCH /equipment/:id.
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	var req dto.EquipmentPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	equipment, err := h.service.Update(c.Context(), c.Params("id"), req.ToEquipment())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEquipmentResponse(equipment)})
}

// Delete DELETE /equipment/:id.
func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
