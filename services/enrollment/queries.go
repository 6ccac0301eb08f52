package enrollment

import (
	"context"
	"errors"

	courseModels "lms/models/course"
	"lms/store"
)

// Detail is an enrollment with its completed-module set attached.
type Detail struct {
	Enrollment  *courseModels.Enrollment
	Completions []courseModels.CompletedModule
}

// Stats summarizes enrollment counts for the admin dashboard.
type Stats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
}

// GetEnrollment returns one enrollment for its student or an admin.
func (e *Engine) GetEnrollment(ctx context.Context, enrollmentID, requesterID uint, isAdmin bool) (*Detail, error) {
	enr, err := e.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeEnrollmentNotFound, "Enrollment not found")
		}
		return nil, err
	}
	if enr.StudentID != requesterID && !isAdmin {
		return nil, newErr(KindNotAuthorized, CodeNotAuthorized, "Not authorized")
	}

	completions, err := e.enrollments.Completions(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &Detail{Enrollment: enr, Completions: completions}, nil
}

// ListEnrollments returns the student's enrollments, newest first. The rows
// carry the payment columns, so this doubles as the payment history.
func (e *Engine) ListEnrollments(ctx context.Context, studentID uint) ([]courseModels.Enrollment, error) {
	return e.enrollments.ListByStudent(ctx, studentID)
}

// EnrollmentForCourse returns the student's live enrollment in a course.
func (e *Engine) EnrollmentForCourse(ctx context.Context, studentID, courseID uint) (*courseModels.Enrollment, error) {
	enr, err := e.enrollments.FindLive(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeEnrollmentNotFound, "Not enrolled in this course")
		}
		return nil, err
	}
	return enr, nil
}

// CourseRoster returns the derived roster cache for a course. Readers
// tolerate brief staleness between an enrollment landing and its roster
// append; the reconciler closes the gap.
func (e *Engine) CourseRoster(ctx context.Context, courseID uint) ([]courseModels.RosterEntry, error) {
	if _, err := e.courses.Get(ctx, courseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeCourseNotFound, "Course not found")
		}
		return nil, err
	}
	return e.courses.Roster(ctx, courseID)
}

// EnrollmentStats returns aggregate counts.
func (e *Engine) EnrollmentStats(ctx context.Context) (*Stats, error) {
	total, err := e.enrollments.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	active, err := e.enrollments.CountByStatus(ctx, courseModels.StatusActive)
	if err != nil {
		return nil, err
	}
	completed, err := e.enrollments.CountByStatus(ctx, courseModels.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return &Stats{Total: total, Active: active, Completed: completed}, nil
}
