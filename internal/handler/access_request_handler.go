package handler

import (
	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/accessrequest"
)

type AccessRequestHandler struct {
	accessRequestService accessrequest.Service
}

func NewAccessRequestHandler(accessRequestService accessrequest.Service) *AccessRequestHandler {
	return &AccessRequestHandler{accessRequestService: accessRequestService}
}

func (h *AccessRequestHandler) Submit(c *fiber.Ctx) error {
	var input domain.AccessRequestInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	req, err := h.accessRequestService.Submit(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Access request submitted. An administrator will review it shortly.",
		"request": req,
	})
}

func (h *AccessRequestHandler) List(c *fiber.Ctx) error {
	params := getPaginationParams(c)

	var status *domain.AccessRequestStatus
	if s := c.Query("status"); s != "" {
		st := domain.AccessRequestStatus(s)
		status = &st
	}

	result, err := h.accessRequestService.List(c.Context(), status, params)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *AccessRequestHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	req, err := h.accessRequestService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

func (h *AccessRequestHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input domain.ApproveAccessRequestInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	account, err := h.accessRequestService.Approve(c.Context(), middleware.Actor(c), id, input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Access request approved",
		"user":    account,
	})
}

func (h *AccessRequestHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	req, err := h.accessRequestService.Reject(c.Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Access request rejected",
		"request": req,
	})
}
