package dtos

import (
	"time"

	"github.com/google/uuid"
)

type SortingDirection string

const (
	SortAsc  SortingDirection = "ASC"
	SortDesc SortingDirection = "DESC"
)

// OrderByRatingStar triggers Bayesian-average ranking instead of a plain
// column sort.
const OrderByRatingStar = "ratingStar"

type StoredLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Geocode struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// UserPreferences is what the user-preferences service stores for a user.
// Used only to re-rank results, never to filter them.
type UserPreferences struct {
	ClassCategoryIDs []uuid.UUID     `json:"classCategoryIds"`
	Location         *StoredLocation `json:"location"`
}

// TutorQuery carries the filter and sort clauses for the ranked tutor
// search. Every clause is optional; the repository translates the
// populated ones into SQL.
type TutorQuery struct {
	Q      string
	Gender *string

	IncludeEmailNotVerified bool
	IncludeBlocked          bool
	IncludeNotApproved      bool

	Order                                  string
	Dir                                    SortingDirection
	ShowZeroFeedbacksTutorsInRatingSorting bool

	ClassCategoryIDs   []uuid.UUID
	ClassCategorySlugs []string
	SubjectIDs         []uuid.UUID
	LevelIDs           []uuid.UUID

	MinWage *int64
	MaxWage *int64

	Page  int
	Limit int

	// Address reference to resolve into a coordinate when no explicit
	// location is known. At most one of these is honoured, most specific
	// first.
	WardID       string
	WardSlug     string
	DistrictID   string
	DistrictSlug string
	ProvinceID   string
	ProvinceSlug string

	// Identity of the caller, used to look up saved preferences when no
	// explicit category filter was given.
	UserID *uuid.UUID

	// Enrichment outputs, populated by the query service before the scan.
	Location        *StoredLocation
	UserPreferences *UserPreferences
}

// TutorPatch enumerates the fields the partial-merge update path may
// touch. Identity and relation fields are deliberately absent.
type TutorPatch struct {
	EmailVerified *bool
	IsBlocked     *bool
	IsApproved    *bool
	ApprovedAt    *time.Time
	Latitude      *float64
	Longitude     *float64
}
