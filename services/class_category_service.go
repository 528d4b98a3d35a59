package services

import (
	"context"

	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/repositories"
)

type ClassCategoryService struct {
	categories *repositories.ClassCategoryRepository
}

func NewClassCategoryService(categories *repositories.ClassCategoryRepository) *ClassCategoryService {
	return &ClassCategoryService{categories: categories}
}

func (s *ClassCategoryService) FindAll(ctx context.Context, filters dtos.ClassCategoryQuery) ([]dtos.ClassCategoryResult, error) {
	return s.categories.FindAll(filters)
}
