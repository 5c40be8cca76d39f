package handler

import (
	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/registration"
)

type RegistrationHandler struct {
	registrationService registration.Service
}

func NewRegistrationHandler(registrationService registration.Service) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) SubmitCitizen(c *fiber.Ctx) error {
	var input domain.CitizenRegistrationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	reg, err := h.registrationService.SubmitCitizen(c.Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (h *RegistrationHandler) FlagSuspect(c *fiber.Ctx) error {
	var input domain.SuspectRegistrationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	reg, err := h.registrationService.FlagSuspect(c.Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (h *RegistrationHandler) List(c *fiber.Ctx) error {
	filter := domain.RegistrationFilter{
		Query: c.Query("q"),
		Limit: c.QueryInt("limit", 50),
	}
	if status := c.Query("status"); status != "" {
		s := domain.RegistrationStatus(status)
		filter.Status = &s
	}
	if wanted := c.Query("wanted_status"); wanted != "" {
		w := domain.WantedStatus(wanted)
		filter.WantedStatus = &w
	}
	if kind := c.Query("kind"); kind != "" {
		k := domain.RegistrationKind(kind)
		filter.Kind = &k
	}

	regs, err := h.registrationService.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(regs)
}

func (h *RegistrationHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	reg, err := h.registrationService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}

func (h *RegistrationHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateRegistrationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	reg, err := h.registrationService.Update(c.Context(), middleware.Actor(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}

func (h *RegistrationHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input domain.SetStatusInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	reg, err := h.registrationService.SetStatus(c.Context(), middleware.Actor(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}

func (h *RegistrationHandler) Unflag(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	reg, err := h.registrationService.Unflag(c.Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}

func (h *RegistrationHandler) UploadPhoto(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	upload, closer, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closer.Close()

	reg, err := h.registrationService.AttachPhoto(c.Context(), middleware.Actor(c), id, upload)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}
