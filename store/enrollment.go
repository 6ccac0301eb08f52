package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	courseModels "lms/models/course"
)

type enrollmentStore struct {
	db *gorm.DB
}

// NewEnrollmentStore returns the PostgreSQL-backed EnrollmentStore.
func NewEnrollmentStore(db *gorm.DB) EnrollmentStore {
	return &enrollmentStore{db: db}
}

func (s *enrollmentStore) CreateLive(ctx context.Context, enr *courseModels.Enrollment) error {
	err := s.db.WithContext(ctx).Create(enr).Error
	if err != nil {
		// The partial unique index on live (student, course) pairs turns a
		// concurrent second insert into a constraint violation here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEnrollment
		}
		return err
	}
	return nil
}

func (s *enrollmentStore) Get(ctx context.Context, id uint) (*courseModels.Enrollment, error) {
	var enr courseModels.Enrollment
	err := s.db.WithContext(ctx).First(&enr, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enr, nil
}

func (s *enrollmentStore) FindLive(ctx context.Context, studentID, courseID uint) (*courseModels.Enrollment, error) {
	var enr courseModels.Enrollment
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status IN ?",
			studentID, courseID, []string{courseModels.StatusActive, courseModels.StatusCompleted}).
		First(&enr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enr, nil
}

func (s *enrollmentStore) FindByTransaction(ctx context.Context, transactionID string) (*courseModels.Enrollment, error) {
	var enr courseModels.Enrollment
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&enr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enr, nil
}

func (s *enrollmentStore) ListByStudent(ctx context.Context, studentID uint) ([]courseModels.Enrollment, error) {
	var enrollments []courseModels.Enrollment
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (s *enrollmentStore) Completions(ctx context.Context, enrollmentID uint) ([]courseModels.CompletedModule, error) {
	var completions []courseModels.CompletedModule
	err := s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at asc").
		Find(&completions).Error
	return completions, err
}

func (s *enrollmentStore) UpdateProgress(ctx context.Context, enr *courseModels.Enrollment, completions []courseModels.CompletedModule) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(enr).Error; err != nil {
			return err
		}
		if err := tx.Where("enrollment_id = ?", enr.ID).
			Delete(&courseModels.CompletedModule{}).Error; err != nil {
			return err
		}
		if len(completions) == 0 {
			return nil
		}
		for i := range completions {
			completions[i].ID = 0
			completions[i].EnrollmentID = enr.ID
		}
		return tx.Create(&completions).Error
	})
}

func (s *enrollmentStore) MarkRefunded(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": courseModels.PaymentRefunded,
			"status":         courseModels.StatusDropped,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *enrollmentStore) MarkDropped(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Where("id = ?", id).
		Update("status", courseModels.StatusDropped)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *enrollmentStore) LivePairs(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	err := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Where("status IN ?", []string{courseModels.StatusActive, courseModels.StatusCompleted}).
		Select("student_id, course_id").
		Scan(&pairs).Error
	return pairs, err
}

func (s *enrollmentStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&courseModels.Enrollment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}
