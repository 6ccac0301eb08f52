package store

import (
	"context"
	"errors"

	"lms/models"
	courseModels "lms/models/course"
)

var (
	// ErrNotFound means the referenced row does not exist (or is soft-deleted).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEnrollment is the live-pair unique index firing: another
	// active or completed enrollment already exists for (student, course).
	ErrDuplicateEnrollment = errors.New("duplicate live enrollment")
	// ErrEventSeen means the webhook event id was already recorded.
	ErrEventSeen = errors.New("webhook event already recorded")
)

// Pair identifies one (student, course) enrollment relationship.
type Pair struct {
	StudentID uint
	CourseID  uint
}

// CourseStore reads courses and maintains the derived roster cache.
type CourseStore interface {
	Get(ctx context.Context, id uint) (*courseModels.Course, error)
	GetWithModules(ctx context.Context, id uint) (*courseModels.Course, error)
	// AppendToRoster is idempotent: re-adding an existing entry is a no-op.
	AppendToRoster(ctx context.Context, courseID, studentID uint) error
	Roster(ctx context.Context, courseID uint) ([]courseModels.RosterEntry, error)
}

// EnrollmentStore persists enrollments. CreateLive is the conditional,
// atomic insert that enforces the uniqueness invariant: a concurrent second
// insert for the same live pair must come back as ErrDuplicateEnrollment.
type EnrollmentStore interface {
	CreateLive(ctx context.Context, enr *courseModels.Enrollment) error
	Get(ctx context.Context, id uint) (*courseModels.Enrollment, error)
	FindLive(ctx context.Context, studentID, courseID uint) (*courseModels.Enrollment, error)
	FindByTransaction(ctx context.Context, transactionID string) (*courseModels.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]courseModels.Enrollment, error)
	Completions(ctx context.Context, enrollmentID uint) ([]courseModels.CompletedModule, error)
	// UpdateProgress persists the enrollment row and replaces its
	// completed-module set in one transaction.
	UpdateProgress(ctx context.Context, enr *courseModels.Enrollment, completions []courseModels.CompletedModule) error
	// MarkRefunded sets payment refunded and status dropped atomically.
	MarkRefunded(ctx context.Context, id uint) error
	MarkDropped(ctx context.Context, id uint) error
	LivePairs(ctx context.Context) ([]Pair, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// WebhookStore records verified provider events for dedupe and audit.
type WebhookStore interface {
	// Record inserts the event; ErrEventSeen signals a replay.
	Record(ctx context.Context, event *courseModels.WebhookEvent) error
	// Discard removes a recorded event so the provider's redelivery is
	// processed again. Used when handling failed after the record landed.
	Discard(ctx context.Context, eventID string) error
}

// UserStore is read-only here: role checks ride on the JWT, this is for
// notification addresses and existence checks.
type UserStore interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}
