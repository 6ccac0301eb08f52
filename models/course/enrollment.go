package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Payment methods
const (
	MethodCard = "card"
	MethodFree = "free"
)

// Enrollment links one student to one course, carrying the payment record
// and the cached progress. Rows are never deleted; a drop or refund is a
// status transition so the payment trail survives.
//
// A partial unique index on (student_id, course_id) WHERE status IN
// ('active', 'completed') enforces the one-live-enrollment invariant at the
// database, not in application code.
type Enrollment struct {
	gorm.Model
	StudentID uint   `json:"student_id" gorm:"index;not null"`
	CourseID  uint   `json:"course_id" gorm:"index;not null"`
	Status    string `json:"status" gorm:"default:'active'"`

	// Progress (OverallProgress is a cached derivation; the completed-module
	// rows are the ground truth)
	OverallProgress int        `json:"overall_progress" gorm:"default:0"`
	LastAccessed    time.Time  `json:"last_accessed"`
	CompletedAt     *time.Time `json:"completed_at"`

	// Payment (owned exclusively by this enrollment)
	PaymentAmount int64  `json:"payment_amount" gorm:"default:0"` // minor currency units
	Currency      string `json:"currency" gorm:"default:'usd'"`
	PaymentMethod string `json:"payment_method" gorm:"default:'card'"`
	PaymentStatus string `json:"payment_status" gorm:"default:'pending'"`
	TransactionID string `json:"transaction_id" gorm:"index"`

	// Certificate
	CertificateIssued   bool       `json:"certificate_issued" gorm:"default:false"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at"`
	CertificateSerial   string     `json:"certificate_serial"`

	CompletedModules []CompletedModule `json:"completed_modules,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// CompletedModule is one entry of the enrollment's completed-module set.
// The unique (enrollment, module) pair makes re-completion a no-op.
type CompletedModule struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	EnrollmentID uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_module"`
	ModuleID     uint      `json:"module_id" gorm:"not null;uniqueIndex:idx_enrollment_module"`
	CompletedAt  time.Time `json:"completed_at"`
	QuizScore    int       `json:"quiz_score" gorm:"default:0"`
}

// IsRefundable reports whether the payment can be sent to the gateway for a
// refund at all: card payments with a transaction id only.
func (e *Enrollment) IsRefundable() bool {
	return e.PaymentMethod == MethodCard && e.TransactionID != ""
}
