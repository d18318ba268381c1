package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/emr-service/internal/api/dto"
	"github.com/spec-kit/emr-service/internal/service"
)

// ActivityHandler exposes user activity logs.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// Create handles POST /users/:id/user_activity_logs.
func (h *ActivityHandler) Create(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ActivityLogCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	var at time.Time
	if req.ActivityDate != nil {
		at = *req.ActivityDate
	}
	entry, err := h.activity.Create(c.UserContext(), id, req.ActivityDescription, at)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewActivityLogResponse(entry)})
}

// List handles GET /user_activity_logs/?skip=&limit=.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	entries, err := h.activity.List(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityLogResponses(entries)})
}
