package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModels "lms/models/course"
)

type courseStore struct {
	db *gorm.DB
}

// NewCourseStore returns the PostgreSQL-backed CourseStore.
func NewCourseStore(db *gorm.DB) CourseStore {
	return &courseStore{db: db}
}

func (s *courseStore) Get(ctx context.Context, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *courseStore) GetWithModules(ctx context.Context, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		Preload("Modules", "is_deleted = ?", false).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *courseStore) AppendToRoster(ctx context.Context, courseID, studentID uint) error {
	entry := courseModels.RosterEntry{
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

func (s *courseStore) Roster(ctx context.Context, courseID uint) ([]courseModels.RosterEntry, error) {
	var entries []courseModels.RosterEntry
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("enrolled_at asc").
		Find(&entries).Error
	return entries, err
}
