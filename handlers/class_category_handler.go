package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/services"
)

type ClassCategoryHandler struct {
	service *services.ClassCategoryService
}

func NewClassCategoryHandler(service *services.ClassCategoryService) *ClassCategoryHandler {
	return &ClassCategoryHandler{service: service}
}

func (h *ClassCategoryHandler) GetAll(c *fiber.Ctx) error {
	filters := dtos.ClassCategoryQuery{
		Q:                 c.Query("q"),
		IDs:               parseUUIDList(c.Query("ids")),
		Slugs:             parseStringList(c.Query("slugs")),
		IncludeTutorCount: c.QueryBool("includeTutorCount"),
	}

	categories, err := h.service.FindAll(c.Context(), filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve class categories"})
	}

	return c.JSON(categories)
}
