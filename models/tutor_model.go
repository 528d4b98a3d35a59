package models

import (
	"time"

	"github.com/google/uuid"
)

// FileObject mirrors the file-service payload stored alongside a profile
// (avatar, portfolio entries). Persisted as a JSON blob, never queried.
type FileObject struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

type SocialProfile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tutor is the denormalized projection record. It is created and replaced
// wholesale from the auth service's full profile; events only mutate it.
type Tutor struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email      string    `gorm:"size:255;not null;unique" json:"email"`
	Username   string    `gorm:"size:255;not null;unique" json:"username"`
	FirstName  string    `gorm:"size:255" json:"first_name"`
	MiddleName string    `gorm:"size:255" json:"middle_name"`
	LastName   string    `gorm:"size:255" json:"last_name"`
	Gender     *string   `gorm:"size:10" json:"gender"`

	Avatar  *FileObject `gorm:"serializer:json" json:"avatar"`
	Address *string     `gorm:"size:255" json:"address"`
	WardID  *string     `gorm:"size:36" json:"ward_id"`

	// Resolved coordinates; nullable until the ward reference is geocoded.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	IsBlocked     bool       `gorm:"default:false" json:"is_blocked"`
	IsApproved    bool       `gorm:"default:false" json:"is_approved"`
	ApprovedAt    *time.Time `json:"approved_at"`

	Biography        string          `gorm:"type:text" json:"biography"`
	MinimumWage      int64           `gorm:"default:0" json:"minimum_wage"`
	CurrentWorkplace string          `gorm:"size:255" json:"current_workplace"`
	CurrentPosition  string          `gorm:"size:255" json:"current_position"`
	Major            string          `gorm:"size:255" json:"major"`
	GraduationYear   *int            `json:"graduation_year"`
	TutorPortfolios  []FileObject    `gorm:"serializer:json" json:"tutor_portfolios"`
	SocialProfiles   []SocialProfile `gorm:"serializer:json" json:"social_profiles"`

	// Aggregate counters, only ever moved by atomic increments.
	NumOfClasses        int     `gorm:"default:0" json:"num_of_classes"`
	FeedbackCount       int     `gorm:"default:0" json:"feedback_count"`
	TotalFeedbackRating float64 `gorm:"default:0" json:"total_feedback_rating"`

	Proficiencies []*ClassCategory `gorm:"many2many:tutor_proficiencies;" json:"proficiencies"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
