package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTutorNotFound = errors.New("tutor not found")

// nameSimilarityThreshold is the trigram score a tutor's concatenated name
// must reach for a free-text query to include them.
const nameSimilarityThreshold = 0.1

// Columns an explicit `order` parameter may name. Anything else is ignored
// rather than interpolated into SQL.
var sortableColumns = map[string]string{
	"createdAt":      "tutors.created_at",
	"updatedAt":      "tutors.updated_at",
	"firstName":      "tutors.first_name",
	"lastName":       "tutors.last_name",
	"minimumWage":    "tutors.minimum_wage",
	"numOfClasses":   "tutors.num_of_classes",
	"feedbackCount":  "tutors.feedback_count",
	"graduationYear": "tutors.graduation_year",
}

type TutorRepository struct {
	db *gorm.DB

	// Prior sample-size weight M of the Bayesian average.
	bayesianPriorWeight float64
}

func NewTutorRepository(db *gorm.DB, bayesianPriorWeight float64) *TutorRepository {
	return &TutorRepository{db: db, bayesianPriorWeight: bayesianPriorWeight}
}

func (r *TutorRepository) FindByID(id uuid.UUID) (*models.Tutor, error) {
	var tutor models.Tutor
	err := r.db.
		Preload("Proficiencies").
		Preload("Proficiencies.Subject").
		Preload("Proficiencies.Level").
		First(&tutor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTutorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tutor, nil
}

// profileColumns are the columns a profile re-fetch may overwrite.
// Proficiencies belong to the preference events and the aggregate counters
// to the feedback/application events; a profile upsert must leave both
// untouched.
var profileColumns = []string{
	"email", "username", "first_name", "middle_name", "last_name", "gender",
	"avatar", "address", "ward_id", "latitude", "longitude",
	"email_verified", "is_blocked", "is_approved", "approved_at",
	"biography", "minimum_wage", "current_workplace", "current_position",
	"major", "graduation_year", "tutor_portfolios", "social_profiles",
	"updated_at",
}

// Save upserts the projection record from a freshly fetched profile.
func (r *TutorRepository) Save(tutor *models.Tutor) error {
	return r.db.
		Omit("Proficiencies").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).
		Create(tutor).Error
}

// UpdateByID is the partial-merge path: fetch, merge the patch, persist.
func (r *TutorRepository) UpdateByID(id uuid.UUID, patch dtos.TutorPatch) (*models.Tutor, error) {
	var tutor models.Tutor
	err := r.db.First(&tutor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTutorNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.EmailVerified != nil {
		updates["email_verified"] = *patch.EmailVerified
	}
	if patch.IsBlocked != nil {
		updates["is_blocked"] = *patch.IsBlocked
	}
	if patch.IsApproved != nil {
		updates["is_approved"] = *patch.IsApproved
	}
	if patch.ApprovedAt != nil {
		updates["approved_at"] = *patch.ApprovedAt
	}
	if patch.Latitude != nil {
		updates["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		updates["longitude"] = *patch.Longitude
	}
	if len(updates) == 0 {
		return &tutor, nil
	}

	if err := r.db.Model(&tutor).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &tutor, nil
}

// Delete removes the record after its proficiency relation has been
// cleared by the caller.
func (r *TutorRepository) Delete(tutor *models.Tutor) error {
	return r.db.Delete(tutor).Error
}

func (r *TutorRepository) ClearProficiencies(tutor *models.Tutor) error {
	return r.db.Model(tutor).Association("Proficiencies").Clear()
}

func (r *TutorRepository) AppendProficiencies(tutor *models.Tutor, categories []*models.ClassCategory) error {
	return r.db.Model(tutor).Association("Proficiencies").Append(categories)
}

func (r *TutorRepository) RemoveProficiencies(tutor *models.Tutor, categories []*models.ClassCategory) error {
	return r.db.Model(tutor).Association("Proficiencies").Delete(categories)
}

// IncrementFeedback applies both counter deltas as a single storage-level
// increment so a concurrent non-gated writer cannot lose an update.
func (r *TutorRepository) IncrementFeedback(id uuid.UUID, countDelta int, ratingDelta float64) error {
	res := r.db.Model(&models.Tutor{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"feedback_count":        gorm.Expr("feedback_count + ?", countDelta),
		"total_feedback_rating": gorm.Expr("total_feedback_rating + ?", ratingDelta),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTutorNotFound
	}
	return nil
}

func (r *TutorRepository) IncrementNumOfClasses(id uuid.UUID) error {
	res := r.db.Model(&models.Tutor{}).Where("id = ?", id).
		UpdateColumn("num_of_classes", gorm.Expr("num_of_classes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTutorNotFound
	}
	return nil
}

// FindWithUnresolvedLocation returns tutors that carry a ward reference but
// were never geocoded.
func (r *TutorRepository) FindWithUnresolvedLocation(limit int) ([]models.Tutor, error) {
	var tutors []models.Tutor
	err := r.db.
		Where("ward_id IS NOT NULL AND latitude IS NULL").
		Limit(limit).
		Find(&tutors).Error
	return tutors, err
}

// GetTutorsAndTotalCount runs the composite ranked search: conjunctive
// filters, additive ranking signals, then pagination. The total count is
// taken over the same filter set before the page is cut.
func (r *TutorRepository) GetTutorsAndTotalCount(filters dtos.TutorQuery) ([]models.Tutor, int64, error) {
	base := r.db.Model(&models.Tutor{})

	categoriesInFilter := false
	if len(filters.ClassCategoryIDs) > 0 {
		// Ids take precedence over slugs.
		base = filterByCategoryField(base, "cc.id", uuidValues(filters.ClassCategoryIDs))
		categoriesInFilter = true
	} else if len(filters.ClassCategorySlugs) > 0 {
		base = filterByCategoryField(base, "cc.slug", stringValues(filters.ClassCategorySlugs))
		categoriesInFilter = true
	}

	if len(filters.SubjectIDs) > 0 {
		base = filterByCategoryField(base, "cc.subject_id", uuidValues(filters.SubjectIDs))
	}
	if len(filters.LevelIDs) > 0 {
		base = filterByCategoryField(base, "cc.level_id", uuidValues(filters.LevelIDs))
	}

	if filters.Gender != nil {
		base = base.Where("tutors.gender = ?", *filters.Gender)
	}
	if !filters.IncludeBlocked {
		base = base.Where("tutors.is_blocked = ?", false)
	}
	if !filters.IncludeEmailNotVerified {
		base = base.Where("tutors.email_verified = ?", true)
	}
	if !filters.IncludeNotApproved {
		base = base.Where("tutors.is_approved = ?", true)
	}
	if filters.MinWage != nil {
		base = base.Where("tutors.minimum_wage >= ?", *filters.MinWage)
	}
	if filters.MaxWage != nil {
		base = base.Where("tutors.minimum_wage <= ?", *filters.MaxWage)
	}

	ranking := &rankedSelects{}

	if filters.Q != "" {
		base = r.applySearchQuery(base, ranking, filters.Q)
	}

	// Ranking signal precedence: explicit location, then category
	// affinity from preferences, then preference location. An explicit
	// category filter disables affinity ranking entirely.
	if filters.Location != nil {
		ranking.addDistance(*filters.Location)
	}
	prefs := filters.UserPreferences
	if !categoriesInFilter && prefs != nil && len(prefs.ClassCategoryIDs) > 0 {
		ranking.addCategoryAffinity(prefs.ClassCategoryIDs)
	}
	if filters.Location == nil && prefs != nil && prefs.Location != nil {
		ranking.addDistance(*prefs.Location)
	}

	// An explicit order overrides every implicit ranking signal.
	if filters.Order == dtos.OrderByRatingStar {
		avg, err := r.globalAverageRating()
		if err != nil {
			return nil, 0, err
		}
		ranking.resetOrders()
		ranking.addBayesianAverage(r.bayesianPriorWeight, avg, filters.ShowZeroFeedbacksTutorsInRatingSorting)
		if !filters.ShowZeroFeedbacksTutorsInRatingSorting {
			base = base.Where("tutors.feedback_count > ?", 0)
		}
	} else if filters.Order != "" {
		if column, ok := sortableColumns[filters.Order]; ok {
			ranking.resetOrders()
			ranking.addColumnOrder(column, filters.Dir)
		}
		// Unknown order values are a validation gap: ignored, not fatal.
	}

	var totalCount int64
	if err := base.Session(&gorm.Session{}).Distinct("tutors.id").Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	result := base.Session(&gorm.Session{}).
		Select("tutors.*"+ranking.selectSuffix(), ranking.selectArgs...).
		Preload("Proficiencies").
		Preload("Proficiencies.Subject").
		Preload("Proficiencies.Level")
	for _, order := range ranking.orders {
		result = result.Order(order)
	}

	if filters.Page > 0 && filters.Limit > 0 {
		result = result.Offset((filters.Page - 1) * filters.Limit).Limit(filters.Limit)
	}

	var tutors []models.Tutor
	if err := result.Find(&tutors).Error; err != nil {
		return nil, 0, err
	}
	return tutors, totalCount, nil
}

// applySearchQuery adds the free-text inclusion clause (name similarity OR
// biography full-text OR username/email substring) and the two rank keys.
func (r *TutorRepository) applySearchQuery(base *gorm.DB, ranking *rankedSelects, q string) *gorm.DB {
	nameSimilarity := "similarity(LOWER(CONCAT(tutors.first_name, ' ', tutors.middle_name, ' ', tutors.last_name)), LOWER(?))"

	words := strings.Fields(q)
	for i, word := range words {
		words[i] = word + ":*"
	}
	tsQuery := strings.Join(words, "|")
	substring := "%" + q + "%"

	base = base.Where(
		r.db.
			Where(nameSimilarity+" >= ?", q, nameSimilarityThreshold).
			Or("to_tsquery('simple', ?) @@ to_tsvector('simple', tutors.biography)", tsQuery).
			Or("tutors.username ILIKE ?", substring).
			Or("tutors.email ILIKE ?", substring),
	)

	ranking.addSelect(nameSimilarity+" AS rank1", q)
	ranking.addSelect("ts_rank_cd(to_tsvector('simple', tutors.biography), to_tsquery('simple', ?)) AS rank2", tsQuery)
	ranking.addOrder("rank1 DESC")
	ranking.addOrder("rank2 DESC")
	return base
}

func (r *TutorRepository) globalAverageRating() (float64, error) {
	var avg sql.NullFloat64
	row := r.db.Model(&models.Tutor{}).
		Select("AVG(total_feedback_rating / feedback_count)").
		Where("feedback_count > ?", 0).
		Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func filterByCategoryField(query *gorm.DB, field string, values []any) *gorm.DB {
	return query.Where(
		fmt.Sprintf(
			"EXISTS (SELECT 1 FROM tutor_proficiencies tp JOIN class_categories cc ON cc.id = tp.class_category_id WHERE tp.tutor_id = tutors.id AND %s IN ?)",
			field,
		),
		values,
	)
}

// rankedSelects accumulates the aliased ranking expressions and the order
// keys referencing them, in signal-precedence sequence.
type rankedSelects struct {
	selects    []string
	selectArgs []any
	orders     []string
}

func (s *rankedSelects) addSelect(expr string, args ...any) {
	s.selects = append(s.selects, expr)
	s.selectArgs = append(s.selectArgs, args...)
}

func (s *rankedSelects) addOrder(order string) {
	s.orders = append(s.orders, order)
}

// resetOrders drops the implicit ranking keys when an explicit order takes
// over. Their select expressions stay; they are harmless extra columns.
func (s *rankedSelects) resetOrders() {
	s.orders = nil
}

func (s *rankedSelects) addColumnOrder(column string, dir dtos.SortingDirection) {
	if dir != dtos.SortDesc {
		dir = dtos.SortAsc
	}
	s.addOrder(column + " " + string(dir))
}

// addDistance ranks by spherical (haversine) distance to the coordinate;
// tutors without a stored location sort last.
func (s *rankedSelects) addDistance(location dtos.StoredLocation) {
	s.addSelect(
		`(6371000 * acos(LEAST(1.0, GREATEST(-1.0,
			cos(radians(?)) * cos(radians(tutors.latitude)) * cos(radians(tutors.longitude) - radians(?))
			+ sin(radians(?)) * sin(radians(tutors.latitude))
		)))) AS distance`,
		location.Latitude, location.Longitude, location.Latitude,
	)
	s.addOrder("distance ASC NULLS LAST")
}

// addCategoryAffinity ranks tutors with proficiencies in the preferred set
// ahead of the rest without excluding anyone.
func (s *rankedSelects) addCategoryAffinity(classCategoryIDs []uuid.UUID) {
	s.addSelect(
		"(SELECT COUNT(*) FROM tutor_proficiencies tp WHERE tp.tutor_id = tutors.id AND tp.class_category_id IN ?) AS category_count",
		uuidValues(classCategoryIDs),
	)
	s.addOrder("category_count DESC")
}

// addBayesianAverage ranks by the shrinkage estimator
// (n/(n+M))*(sum/n) + (M/(n+M))*globalAverage. With showZeroFeedbacks the
// n = 0 case yields NULL instead of dividing by zero, so those tutors sort
// last rather than disappear.
func (s *rankedSelects) addBayesianAverage(m, globalAverage float64, showZeroFeedbacks bool) {
	expr := `((tutors.feedback_count * 1.0 / (tutors.feedback_count + ?)) * (tutors.total_feedback_rating / tutors.feedback_count)
		+ (? / (tutors.feedback_count + ?)) * ?)`
	args := []any{m, m, m, globalAverage}

	if showZeroFeedbacks {
		expr = "CASE WHEN tutors.feedback_count = 0 THEN NULL ELSE " + expr + " END"
	}

	s.addSelect(expr+" AS bayesian_average", args...)
	s.addOrder("bayesian_average DESC NULLS LAST")
}

func (s *rankedSelects) selectSuffix() string {
	if len(s.selects) == 0 {
		return ""
	}
	return ", " + strings.Join(s.selects, ", ")
}

func uuidValues(ids []uuid.UUID) []any {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}

func stringValues(slugs []string) []any {
	values := make([]any, len(slugs))
	for i, slug := range slugs {
		values[i] = slug
	}
	return values
}
