package models

import "github.com/google/uuid"

type Subject struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"size:255;not null;default:''" json:"name"`
}

type Level struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"size:255;not null;default:''" json:"name"`
}

// ClassCategory is a (subject, level) pair referenced by tutor
// proficiencies. Reference data: inserted on category-created events and
// immutable afterwards.
type ClassCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Slug      *string   `gorm:"size:255;unique" json:"slug"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subject_level" json:"-"`
	LevelID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subject_level" json:"-"`

	Subject Subject `gorm:"foreignkey:SubjectID" json:"subject"`
	Level   Level   `gorm:"foreignkey:LevelID" json:"level"`
}
