package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/models"
)

func TestCreateFindsOrCreatesSubjectAndLevel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassCategoryRepository(db)

	subject := models.Subject{ID: uuid.New(), Name: "Math"}
	level := models.Level{ID: uuid.New(), Name: "10"}

	slugA := "math-10"
	if err := repo.Create(uuid.New(), &slugA, subject, level); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Second category reuses the same subject by id; no duplicate row.
	slugB := "math-11"
	if err := repo.Create(uuid.New(), &slugB, subject, models.Level{ID: uuid.New(), Name: "11"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var subjectCount int64
	db.Model(&models.Subject{}).Count(&subjectCount)
	if subjectCount != 1 {
		t.Fatalf("expected 1 subject, got %d", subjectCount)
	}

	var categoryCount int64
	db.Model(&models.ClassCategory{}).Count(&categoryCount)
	if categoryCount != 2 {
		t.Fatalf("expected 2 categories, got %d", categoryCount)
	}
}

func TestCreateRedeliveryIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassCategoryRepository(db)

	id := uuid.New()
	subject := models.Subject{ID: uuid.New(), Name: "Math"}
	level := models.Level{ID: uuid.New(), Name: "10"}
	slug := "math-10"

	if err := repo.Create(id, &slug, subject, level); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(id, &slug, subject, level); err != nil {
		t.Fatalf("redelivered create must not fail: %v", err)
	}

	var count int64
	db.Model(&models.ClassCategory{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 category after redelivery, got %d", count)
	}
}

func TestFindAllOrdersBySubjectThenNumericLevel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassCategoryRepository(db)

	math := models.Subject{ID: uuid.New(), Name: "Math"}
	art := models.Subject{ID: uuid.New(), Name: "Art"}

	// Insert out of order; "10" must sort after "2" numerically.
	for _, seed := range []struct {
		subject models.Subject
		level   string
	}{
		{math, "10"},
		{math, "2"},
		{art, "5"},
	} {
		slug := seed.subject.Name + "-" + seed.level
		err := repo.Create(uuid.New(), &slug, seed.subject, models.Level{ID: uuid.New(), Name: seed.level})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	results, err := repo.FindAll(dtos.ClassCategoryQuery{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(results))
	}

	got := []string{
		results[0].Subject.Name + "-" + results[0].Level.Name,
		results[1].Subject.Name + "-" + results[1].Level.Name,
		results[2].Subject.Name + "-" + results[2].Level.Name,
	}
	want := []string{"Art-5", "Math-2", "Math-10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestFindAllTutorCountOnlyCountsVisibleTutors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassCategoryRepository(db)
	tutorRepo := NewTutorRepository(db, 2)

	category := seedCategory(t, db, "Math", "10")

	visible := seedTutor(t, db, 1, nil)
	unapproved := seedTutor(t, db, 2, func(tutor *models.Tutor) { tutor.IsApproved = false })
	if err := tutorRepo.AppendProficiencies(visible, []*models.ClassCategory{category}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tutorRepo.AppendProficiencies(unapproved, []*models.ClassCategory{category}); err != nil {
		t.Fatalf("append: %v", err)
	}

	results, err := repo.FindAll(dtos.ClassCategoryQuery{IncludeTutorCount: true})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 category, got %d", len(results))
	}
	if results[0].TutorCount == nil || *results[0].TutorCount != 1 {
		t.Fatalf("expected tutor count 1, got %v", results[0].TutorCount)
	}

	filtered, err := repo.FindAll(dtos.ClassCategoryQuery{IDs: []uuid.UUID{uuid.New()}})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected no categories for unknown id, got %d", len(filtered))
	}
}
