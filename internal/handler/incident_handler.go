package handler

import (
	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/incident"
)

type IncidentHandler struct {
	incidentService incident.Service
}

func NewIncidentHandler(incidentService incident.Service) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService}
}

func (h *IncidentHandler) Submit(c *fiber.Ctx) error {
	var input domain.IncidentInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	report, err := h.incidentService.Submit(c.Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *IncidentHandler) AttachEvidence(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	upload, closer, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closer.Close()

	report, err := h.incidentService.AttachEvidence(c.Context(), id, upload)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *IncidentHandler) List(c *fiber.Ctx) error {
	filter := domain.IncidentFilter{Limit: c.QueryInt("limit", 50)}
	if status := c.Query("status"); status != "" {
		s := domain.IncidentStatus(status)
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := domain.Priority(priority)
		filter.Priority = &p
	}

	reports, err := h.incidentService.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

func (h *IncidentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.incidentService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *IncidentHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.incidentService.Approve(c.Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *IncidentHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.incidentService.Reject(c.Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
