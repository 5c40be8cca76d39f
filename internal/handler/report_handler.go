package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/report"
)

type ReportHandler struct {
	reportService report.Service
}

func NewReportHandler(reportService report.Service) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var input domain.ReportInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	rep, err := h.reportService.Generate(c.Context(), middleware.Actor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rep)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	reports, err := h.reportService.List(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	rep, err := h.reportService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}

func (h *ReportHandler) Export(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	file, err := h.reportService.Export(c.Context(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.FileName))
	return c.Send(file.Data)
}
