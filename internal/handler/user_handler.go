package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		return middleware.Unauthorized("User not found")
	}
	return c.JSON(current)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetCurrentUserID(c)

	var input domain.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	account, err := h.userService.UpdateProfile(c.Context(), userID, input)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	userID := middleware.GetCurrentUserID(c)

	upload, closer, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closer.Close()

	account, err := h.userService.UploadAvatar(c.Context(), userID, upload)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	account, err := h.userService.CreateByAdmin(c.Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	var filter domain.UserFilter
	if role := c.Query("role"); role != "" {
		r := domain.UserRole(role)
		filter.Role = &r
	}
	if active := c.Query("active"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			return middleware.BadRequest("Invalid active filter")
		}
		filter.Active = &v
	}

	users, err := h.userService.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input domain.ChangeRoleInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	account, err := h.userService.ChangeRole(c.Context(), middleware.Actor(c), id, input.Role)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input domain.SetActiveInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	account, err := h.userService.SetActive(c.Context(), middleware.Actor(c), id, input.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(account)
}
