package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RequestsHandler manages maintenance request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateRequestInput{
		Subject:       req.Subject,
		Description:   req.Description,
		EquipmentID:   req.EquipmentID,
		EquipmentName: req.EquipmentName,
		RequestType:   domain.RequestType(req.RequestType),
		ScheduledDate: req.ScheduledDate,
	}
	request, err := h.service.Create(c.Context(), principal.Identity(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter := parseRequestQuery(c)
	requests, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	resolved, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(resolved)})
}

// Approve PATCH /requests/:id/approve.
func (h *RequestsHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ApproveRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.Approve(c.Context(), principal.Identity(), c.Params("id"), req.TeamID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// AcceptTask PATCH /requests/:id/accept.
func (h *RequestsHandler) AcceptTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	request, err := h.service.AcceptTask(c.Context(), principal.Identity(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// UpdateStatus PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateStatusPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	input := service.StatusUpdateInput{
		NewStatus:             domain.RequestStatus(req.Status),
		Duration:              req.Duration,
		TechnicianDescription: req.TechnicianDescription,
	}
	request, err := h.service.UpdateStatus(c.Context(), principal.Identity(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// AddFeedback POST /requests/:id/feedback.
func (h *RequestsHandler) AddFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.FeedbackPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.AddFeedback(c.Context(), principal.Identity(), c.Params("id"), req.Feedback, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// ProposeEdit PATCH /requests/:id.
func (h *RequestsHandler) ProposeEdit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ProposeEditPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.EditInput{
		Subject:          req.Subject,
		Description:      req.Description,
		EquipmentID:      req.EquipmentID,
		EquipmentName:    req.EquipmentName,
		ScheduledDate:    req.ScheduledDate,
		Duration:         req.Duration,
		RequiresApproval: req.RequiresApproval,
	}
	request, err := h.service.ProposeEdit(c.Context(), principal.Identity(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// ResolveEdit PATCH /requests/:id/approve-edit.
func (h *RequestsHandler) ResolveEdit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ResolveEditPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.ResolveEdit(c.Context(), principal.Identity(), c.Params("id"), req.Approve)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// Delete DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.Context(), principal.Identity(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func requestDetail(resolved *service.ResolvedRequest) dto.RequestDetailResponse {
	detail := dto.RequestDetailResponse{
		RequestResponse: dto.NewRequestResponse(&resolved.Request),
	}
	if resolved.CreatedBy != nil {
		summary := dto.NewUserSummary(resolved.CreatedBy)
		detail.CreatedByUser = &summary
	}
	if resolved.ApprovedBy != nil {
		summary := dto.NewUserSummary(resolved.ApprovedBy)
		detail.ApprovedByUser = &summary
	}
	if resolved.Technician != nil {
		summary := dto.NewUserSummary(resolved.Technician)
		detail.Technician = &summary
	}
	if resolved.Team != nil {
		team := dto.NewTeamResponse(resolved.Team)
		detail.Team = &team
	}
	if resolved.Equipment != nil {
		equipment := dto.NewEquipmentResponse(resolved.Equipment)
		detail.Equipment = &equipment
	}
	for _, entry := range resolved.History {
		detail.History = append(detail.History, dto.NewHistoryEntryResponse(entry))
	}
	return detail
}

func parseRequestQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				filter.Statuses = append(filter.Statuses, domain.RequestStatus(part))
			}
		}
	}
	if raw := c.Query("request_type"); raw != "" {
		requestType := domain.RequestType(raw)
		filter.RequestType = &requestType
	}
	if raw := c.Query("equipment_id"); raw != "" {
		filter.EquipmentID = &raw
	}
	if raw := c.Query("team_id"); raw != "" {
		filter.TeamID = &raw
	}
	if raw := c.Query("created_by"); raw != "" {
		filter.CreatedBy = &raw
	}
	if raw := c.Query("assigned_to"); raw != "" {
		filter.AssignedTo = &raw
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter
}
