package handler

import (
	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/pkg/refdata"
)

type ReferenceHandler struct {
	store *refdata.Store
}

func NewReferenceHandler(store *refdata.Store) *ReferenceHandler {
	return &ReferenceHandler{store: store}
}

func (h *ReferenceHandler) List(c *fiber.Ctx) error {
	items, err := h.store.List(domain.ReferenceKind(c.Params("kind")))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *ReferenceHandler) Add(c *fiber.Ctx) error {
	var item domain.ReferenceItem
	if err := c.BodyParser(&item); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	created, err := h.store.Add(domain.ReferenceKind(c.Params("kind")), item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ReferenceHandler) Update(c *fiber.Ctx) error {
	var item domain.ReferenceItem
	if err := c.BodyParser(&item); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	updated, err := h.store.Update(domain.ReferenceKind(c.Params("kind")), c.Params("id"), item)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *ReferenceHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(domain.ReferenceKind(c.Params("kind")), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
