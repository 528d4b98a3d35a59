package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/metrics"
	"github.com/tutorify/tutor-query/repositories"
	"github.com/tutorify/tutor-query/services"
)

var validate = validator.New()

type TutorHandler struct {
	service *services.TutorQueryService
}

func NewTutorHandler(service *services.TutorQueryService) *TutorHandler {
	return &TutorHandler{service: service}
}

func (h *TutorHandler) GetTutorByID(c *fiber.Ctx) error {
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	tutor, err := h.service.GetTutorByID(c.Context(), tutorID)
	if errors.Is(err, repositories.ErrTutorNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(tutor)
}

func (h *TutorHandler) GetTutors(c *fiber.Ctx) error {
	start := time.Now()
	filters := parseTutorQuery(c)

	tutors, totalCount, err := h.service.GetTutorsAndTotalCount(c.Context(), filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tutors"})
	}
	metrics.QueryDuration.Observe(time.Since(start).Seconds())

	return c.JSON(fiber.Map{
		"results":     tutors,
		"total_count": totalCount,
	})
}

// parseTutorQuery builds the query filters from query params. Malformed
// values degrade to "filter absent" instead of failing the request.
func parseTutorQuery(c *fiber.Ctx) *dtos.TutorQuery {
	filters := &dtos.TutorQuery{
		Q:                       c.Query("q"),
		IncludeEmailNotVerified: c.QueryBool("includeEmailNotVerified"),
		IncludeBlocked:          c.QueryBool("includeBlocked"),
		IncludeNotApproved:      c.QueryBool("includeNotApproved"),
		Order:                   c.Query("order"),
		ShowZeroFeedbacksTutorsInRatingSorting: c.QueryBool("showZeroFeedbacksTutorsInRatingSorting"),
		Page:         c.QueryInt("page"),
		Limit:        c.QueryInt("limit"),
		WardID:       c.Query("wardId"),
		WardSlug:     c.Query("wardSlug"),
		DistrictID:   c.Query("districtId"),
		DistrictSlug: c.Query("districtSlug"),
		ProvinceID:   c.Query("provinceId"),
		ProvinceSlug: c.Query("provinceSlug"),
	}

	if gender := c.Query("gender"); gender != "" {
		if err := validate.Var(gender, "oneof=male female other"); err != nil {
			log.Printf("Ignoring invalid gender filter %q", gender)
		} else {
			filters.Gender = &gender
		}
	}

	if dir := strings.ToUpper(c.Query("dir")); dir == string(dtos.SortAsc) || dir == string(dtos.SortDesc) {
		filters.Dir = dtos.SortingDirection(dir)
	}

	filters.ClassCategoryIDs = parseUUIDList(c.Query("classCategoryIds"))
	filters.SubjectIDs = parseUUIDList(c.Query("subjectIds"))
	filters.LevelIDs = parseUUIDList(c.Query("levelIds"))
	filters.ClassCategorySlugs = parseStringList(c.Query("classCategorySlugs"))

	if c.Query("minWage") != "" {
		minWage := int64(c.QueryInt("minWage"))
		filters.MinWage = &minWage
	}
	if c.Query("maxWage") != "" {
		maxWage := int64(c.QueryInt("maxWage"))
		filters.MaxWage = &maxWage
	}

	// Identity forwarded by the gateway; used only for preference lookup.
	if header := c.Get("X-User-Id"); header != "" {
		if userID, err := uuid.Parse(header); err == nil {
			filters.UserID = &userID
		}
	}

	return filters
}

func parseStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func parseUUIDList(raw string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range parseStringList(raw) {
		id, err := uuid.Parse(part)
		if err != nil {
			log.Printf("Ignoring invalid uuid %q in filter", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
