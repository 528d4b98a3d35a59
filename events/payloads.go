package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	EventUserCreated             = "user.created"
	EventUserUpdated             = "user.updated"
	EventUserDeleted             = "user.deleted"
	EventUserEmailVerified       = "user.email-verified"
	EventUserBlocked             = "user.blocked"
	EventUserUnblocked           = "user.unblocked"
	EventTutorApproved           = "tutor.approved"
	EventClassCategoryCreated    = "class-category.created"
	EventFeedbackCreated         = "feedback.created"
	EventFeedbackDeleted         = "feedback.deleted"
	EventClassApplicationUpdated = "class-application.status-updated"
	EventTutorProficiencyCreated = "tutor-proficiency.created"
	EventTutorProficiencyDeleted = "tutor-proficiency.deleted"
)

const RoleTutor = "tutor"

// Envelope is the wire form of every domain event: a type discriminator
// plus the type-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type UserPayload struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type TutorApprovedPayload struct {
	TutorID uuid.UUID `json:"tutorId"`
}

type SubjectPayload struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LevelPayload struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ClassCategoryCreatedPayload struct {
	ClassCategoryID uuid.UUID      `json:"classCategoryId"`
	Slug            *string        `json:"slug"`
	Subject         SubjectPayload `json:"subject"`
	Level           LevelPayload   `json:"level"`
}

type FeedbackPayload struct {
	TutorID uuid.UUID `json:"tutorId"`
	Rate    float64   `json:"rate"`
}

type ClassApplicationPayload struct {
	TutorID   uuid.UUID `json:"tutorId"`
	NewStatus string    `json:"newStatus"`
}

type TutorProficiencyPayload struct {
	TutorID          uuid.UUID   `json:"tutorId"`
	ClassCategoryIDs []uuid.UUID `json:"classCategoryIds"`
}
