package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/models"
	"github.com/tutorify/tutor-query/mutexes"
	"github.com/tutorify/tutor-query/repositories"
)

const ApplicationStatusApproved = "approved"

// Outbound collaborator contracts. Implemented by the proxies package,
// faked in tests.
type AuthAPI interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.Tutor, error)
}

type UserPreferencesAPI interface {
	GetUserPreferences(ctx context.Context, userID uuid.UUID) *dtos.UserPreferences
}

type AddressAPI interface {
	GetGeocodeFromWardID(ctx context.Context, id string) *dtos.Geocode
	GetGeocodeFromWardSlug(ctx context.Context, slug string) *dtos.Geocode
	GetGeocodeFromDistrictID(ctx context.Context, id string) *dtos.Geocode
	GetGeocodeFromDistrictSlug(ctx context.Context, slug string) *dtos.Geocode
	GetGeocodeFromProvinceID(ctx context.Context, id string) *dtos.Geocode
	GetGeocodeFromProvinceSlug(ctx context.Context, slug string) *dtos.Geocode
}

// TutorQueryService applies domain events to the tutor projection and runs
// the ranked search over it. Mutations for a given tutor id are serialized
// through the keyed mutex registry; queries are never gated.
type TutorQueryService struct {
	tutors      *repositories.TutorRepository
	categories  *repositories.ClassCategoryRepository
	mutexes     *mutexes.KeyedMutex
	auth        AuthAPI
	preferences UserPreferencesAPI
	address     AddressAPI
}

func NewTutorQueryService(
	tutors *repositories.TutorRepository,
	categories *repositories.ClassCategoryRepository,
	keyedMutexes *mutexes.KeyedMutex,
	auth AuthAPI,
	preferences UserPreferencesAPI,
	address AddressAPI,
) *TutorQueryService {
	return &TutorQueryService{
		tutors:      tutors,
		categories:  categories,
		mutexes:     keyedMutexes,
		auth:        auth,
		preferences: preferences,
		address:     address,
	}
}

// HandleTutorCreatedOrUpdated re-fetches the full profile and replaces the
// projection record wholesale. Event payloads carry partial data only and
// are never trusted as a source for the record itself.
func (s *TutorQueryService) HandleTutorCreatedOrUpdated(ctx context.Context, tutorID uuid.UUID) error {
	fullProfile, err := s.auth.GetUserByID(ctx, tutorID)
	if err != nil {
		return err
	}
	return s.tutors.Save(fullProfile)
}

// HandleTutorDeleted clears the proficiency relation, then removes the
// record.
func (s *TutorQueryService) HandleTutorDeleted(ctx context.Context, tutorID uuid.UUID) error {
	tutor, err := s.tutors.FindByID(tutorID)
	if err != nil {
		return err
	}

	if err := s.tutors.ClearProficiencies(tutor); err != nil {
		return err
	}
	return s.tutors.Delete(tutor)
}

// UpdateTutor is the generic partial-merge path used by the flag events.
func (s *TutorQueryService) UpdateTutor(ctx context.Context, tutorID uuid.UUID, patch dtos.TutorPatch) error {
	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	_, err := s.tutors.UpdateByID(tutorID, patch)
	return err
}

func (s *TutorQueryService) HandleTutorApproved(ctx context.Context, tutorID uuid.UUID) error {
	approved := true
	now := time.Now()
	return s.UpdateTutor(ctx, tutorID, dtos.TutorPatch{IsApproved: &approved, ApprovedAt: &now})
}

func (s *TutorQueryService) HandleUserEmailVerified(ctx context.Context, userID uuid.UUID) error {
	verified := true
	return s.UpdateTutor(ctx, userID, dtos.TutorPatch{EmailVerified: &verified})
}

func (s *TutorQueryService) HandleUserBlocked(ctx context.Context, userID uuid.UUID, blocked bool) error {
	return s.UpdateTutor(ctx, userID, dtos.TutorPatch{IsBlocked: &blocked})
}

// AddTutorProficiencies unions the given category ids into the tutor's
// proficiency set. The join table keys on (tutor, category), so redelivery
// cannot introduce duplicates.
func (s *TutorQueryService) AddTutorProficiencies(ctx context.Context, tutorID uuid.UUID, classCategoryIDs []uuid.UUID) error {
	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	tutor, err := s.tutors.FindByID(tutorID)
	if err != nil {
		return err
	}

	categories, err := s.categories.FindByIDs(classCategoryIDs)
	if err != nil {
		return err
	}
	return s.tutors.AppendProficiencies(tutor, categories)
}

func (s *TutorQueryService) DeleteTutorProficiencies(ctx context.Context, tutorID uuid.UUID, classCategoryIDs []uuid.UUID) error {
	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	tutor, err := s.tutors.FindByID(tutorID)
	if err != nil {
		return err
	}

	categories, err := s.categories.FindByIDs(classCategoryIDs)
	if err != nil {
		return err
	}
	return s.tutors.RemoveProficiencies(tutor, categories)
}

func (s *TutorQueryService) HandleClassCategoryCreated(ctx context.Context, categoryID uuid.UUID, slug *string, subject models.Subject, level models.Level) error {
	return s.categories.Create(categoryID, slug, subject, level)
}

func (s *TutorQueryService) HandleFeedbackCreated(ctx context.Context, tutorID uuid.UUID, rate float64) error {
	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	return s.tutors.IncrementFeedback(tutorID, 1, rate)
}

func (s *TutorQueryService) HandleFeedbackDeleted(ctx context.Context, tutorID uuid.UUID, rate float64) error {
	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	return s.tutors.IncrementFeedback(tutorID, -1, -rate)
}

// HandleClassApplicationUpdated counts a class for the tutor when an
// application reaches approved; every other status is a no-op.
func (s *TutorQueryService) HandleClassApplicationUpdated(ctx context.Context, tutorID uuid.UUID, newStatus string) error {
	if newStatus != ApplicationStatusApproved {
		return nil
	}

	release := s.mutexes.Acquire(tutorID.String())
	defer release()

	return s.tutors.IncrementNumOfClasses(tutorID)
}

func (s *TutorQueryService) GetTutorByID(ctx context.Context, tutorID uuid.UUID) (*models.Tutor, error) {
	return s.tutors.FindByID(tutorID)
}

// GetTutorsAndTotalCount enriches the filters with saved preferences
// and a resolved coordinate, then runs the composite scan. Both
// enrichments are best-effort: they run concurrently and their failures
// leave the filters untouched.
func (s *TutorQueryService) GetTutorsAndTotalCount(ctx context.Context, filters *dtos.TutorQuery) ([]models.Tutor, int64, error) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.setUserPreferences(ctx, filters)
	}()
	go func() {
		defer wg.Done()
		s.setLocation(ctx, filters)
	}()
	wg.Wait()

	return s.tutors.GetTutorsAndTotalCount(*filters)
}

// setUserPreferences fetches the caller's saved preferences, but only when
// no explicit category filter was supplied; an explicit filter always wins
// over preference-derived ranking.
func (s *TutorQueryService) setUserPreferences(ctx context.Context, filters *dtos.TutorQuery) {
	if len(filters.ClassCategoryIDs) > 0 || filters.UserID == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	filters.UserPreferences = s.preferences.GetUserPreferences(ctx, *filters.UserID)
}

// setLocation resolves the most specific address reference present into a
// coordinate. Preference-stored locations are handled later by the
// repository and only apply when this leaves filters.Location unset.
func (s *TutorQueryService) setLocation(ctx context.Context, filters *dtos.TutorQuery) {
	var geocode *dtos.Geocode
	switch {
	case filters.WardID != "":
		geocode = s.address.GetGeocodeFromWardID(ctx, filters.WardID)
	case filters.WardSlug != "":
		geocode = s.address.GetGeocodeFromWardSlug(ctx, filters.WardSlug)
	case filters.DistrictID != "":
		geocode = s.address.GetGeocodeFromDistrictID(ctx, filters.DistrictID)
	case filters.DistrictSlug != "":
		geocode = s.address.GetGeocodeFromDistrictSlug(ctx, filters.DistrictSlug)
	case filters.ProvinceID != "":
		geocode = s.address.GetGeocodeFromProvinceID(ctx, filters.ProvinceID)
	case filters.ProvinceSlug != "":
		geocode = s.address.GetGeocodeFromProvinceSlug(ctx, filters.ProvinceSlug)
	default:
		return
	}

	if geocode == nil {
		log.Println("Geocode resolution failed, proceeding without location ranking")
		return
	}
	filters.Location = &dtos.StoredLocation{Latitude: geocode.Lat, Longitude: geocode.Lon}
}
