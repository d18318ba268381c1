package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/emr-service/internal/api/dto"
	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/service"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Create handles POST /users/.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dto.DateLayout, req.DateOfBirth)
		if err != nil {
			return &service.ValidationError{Field: "date_of_birth", Message: "must be YYYY-MM-DD"}
		}
		dob = parsed
	}

	user, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		Username:      req.Username,
		Password:      req.Password,
		FirstName:     req.FirstName,
		MiddleInitial: req.MiddleInitial,
		LastName:      req.LastName,
		DateOfBirth:   dob,
		Email:         req.Email,
		FacilityID:    req.FacilityID,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	current, ok := auth.CurrentUserFromContext(c)
	if !ok {
		return auth.ErrUnauthenticated
	}
	return c.JSON(fiber.Map{"data": dto.NewCurrentUserResponse(current)})
}

// List handles GET /users/?skip=&limit=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetEnabled handles PUT /users/:id/enabled.
func (h *UsersHandler) SetEnabled(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UserEnabledRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Enabled == nil {
		return &service.ValidationError{Field: "enabled", Message: "required"}
	}

	user, err := h.users.SetEnabled(c.UserContext(), id, *req.Enabled)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	return int64(id), nil
}
