package dtos

import "github.com/google/uuid"

type ClassCategoryQuery struct {
	Q                 string
	IDs               []uuid.UUID
	Slugs             []string
	IncludeTutorCount bool
}

type SubjectResult struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LevelResult struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ClassCategoryResult struct {
	ID         uuid.UUID     `json:"id"`
	Slug       *string       `json:"slug"`
	Subject    SubjectResult `json:"subject"`
	Level      LevelResult   `json:"level"`
	TutorCount *int64        `json:"tutor_count,omitempty"`
}
