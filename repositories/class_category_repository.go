package repositories

import (
	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassCategoryRepository struct {
	db *gorm.DB
}

func NewClassCategoryRepository(db *gorm.DB) *ClassCategoryRepository {
	return &ClassCategoryRepository{db: db}
}

func (r *ClassCategoryRepository) FindByIDs(ids []uuid.UUID) ([]*models.ClassCategory, error) {
	var categories []*models.ClassCategory
	err := r.db.Where("id IN ?", ids).Find(&categories).Error
	return categories, err
}

// Create inserts a category from a category-created event. Subject and
// level rows are found-or-created so redelivery and id-only references are
// both safe; an already existing category id is a no-op.
func (r *ClassCategoryRepository) Create(id uuid.UUID, slug *string, subject models.Subject, level models.Level) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&subject).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&level).Error; err != nil {
			return err
		}

		category := models.ClassCategory{
			ID:        id,
			Slug:      slug,
			SubjectID: subject.ID,
			LevelID:   level.ID,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&category).Error
	})
}

type classCategoryRow struct {
	ID          uuid.UUID
	Slug        *string
	SubjectID   uuid.UUID
	SubjectName string
	LevelID     uuid.UUID
	LevelName   string
	TutorCount  *int64
}

// FindAll lists categories ordered by subject name, then by the numeric
// value of the level name. With IncludeTutorCount only approved and
// email-verified tutors are counted.
func (r *ClassCategoryRepository) FindAll(filters dtos.ClassCategoryQuery) ([]dtos.ClassCategoryResult, error) {
	query := r.db.Model(&models.ClassCategory{}).
		Joins("LEFT JOIN subjects ON subjects.id = class_categories.subject_id").
		Joins("LEFT JOIN levels ON levels.id = class_categories.level_id")

	selects := "class_categories.id AS id, class_categories.slug AS slug, " +
		"subjects.id AS subject_id, subjects.name AS subject_name, " +
		"levels.id AS level_id, levels.name AS level_name"

	if filters.Q != "" {
		pattern := "%" + filters.Q + "%"
		query = query.Where(
			r.db.Where("subjects.name ILIKE ?", pattern).Or("levels.name ILIKE ?", pattern),
		)
	}
	if len(filters.IDs) > 0 {
		query = query.Where("class_categories.id IN ?", filters.IDs)
	}
	if len(filters.Slugs) > 0 {
		query = query.Where("class_categories.slug IN ?", filters.Slugs)
	}

	if filters.IncludeTutorCount {
		query = query.
			Joins("LEFT JOIN tutor_proficiencies ON tutor_proficiencies.class_category_id = class_categories.id").
			Joins("LEFT JOIN tutors ON tutors.id = tutor_proficiencies.tutor_id").
			Where("tutors.is_approved = ?", true).
			Where("tutors.email_verified = ?", true).
			Group("class_categories.id, class_categories.slug, subjects.id, subjects.name, levels.id, levels.name").
			Order("COUNT(tutors.id) DESC")
		selects += ", COUNT(tutors.id) AS tutor_count"
	}

	query = query.
		Select(selects).
		Order("subjects.name ASC").
		Order("CAST(levels.name AS INTEGER) ASC")

	var rows []classCategoryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]dtos.ClassCategoryResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, dtos.ClassCategoryResult{
			ID:   row.ID,
			Slug: row.Slug,
			Subject: dtos.SubjectResult{
				ID:   row.SubjectID,
				Name: row.SubjectName,
			},
			Level: dtos.LevelResult{
				ID:   row.LevelID,
				Name: row.LevelName,
			},
			TutorCount: row.TutorCount,
		})
	}
	return results, nil
}
