package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tutorify/tutor-query/handlers"
)

func TutorRoutes(app *fiber.App, tutors *handlers.TutorHandler, categories *handlers.ClassCategoryHandler) {
	api := app.Group("/api/v1")

	api.Get("/tutors", tutors.GetTutors)
	api.Get("/tutors/:tutorId", tutors.GetTutorByID)
	api.Get("/class-categories", categories.GetAll)
}
