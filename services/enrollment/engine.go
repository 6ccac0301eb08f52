package enrollment

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	courseModels "lms/models/course"
	"lms/services/payment"
	"lms/services/progress"
	"lms/store"
)

// Mailer sends best-effort notifications. Failures are logged and never
// change an operation's outcome.
type Mailer interface {
	SendEnrollmentConfirmation(email, courseTitle string, amount int64, currency string) error
	SendCertificateIssued(email, courseTitle, serial string) error
}

// Engine orchestrates enrollment creation, payment confirmation, progress
// updates and refunds. Enrollments are the source of truth; the course
// roster is a derived cache that is appended to idempotently and repaired
// by the reconciler, never rolled back against.
type Engine struct {
	courses     store.CourseStore
	enrollments store.EnrollmentStore
	webhooks    store.WebhookStore
	users       store.UserStore
	gateway     payment.Gateway
	mailer      Mailer
}

// New wires the engine from its collaborators.
func New(courses store.CourseStore, enrollments store.EnrollmentStore, webhooks store.WebhookStore, users store.UserStore, gateway payment.Gateway, mailer Mailer) *Engine {
	return &Engine{
		courses:     courses,
		enrollments: enrollments,
		webhooks:    webhooks,
		users:       users,
		gateway:     gateway,
		mailer:      mailer,
	}
}

// EnrollResult is either a created enrollment (free/direct path) or a
// payment intent for the client to complete (gated path) — never both.
type EnrollResult struct {
	Enrollment *courseModels.Enrollment
	Intent     *payment.Intent
}

// RefundResult reports the provider's refund record.
type RefundResult struct {
	RefundID string
	Amount   int64 // minor units
	Status   string
}

// RequestEnrollment validates the course, checks the uniqueness invariant
// and either enrolls directly (free course) or opens a payment intent for
// the server-computed price. declaredAmount comes from the client and is
// informational only; it never reaches the ledger.
func (e *Engine) RequestEnrollment(ctx context.Context, studentID, courseID uint, declaredAmount int64) (*EnrollResult, error) {
	course, err := e.courses.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeCourseNotFound, "Course not found")
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, newErr(KindValidation, CodeCourseUnavailable, "Course is not published")
	}

	if _, err := e.enrollments.FindLive(ctx, studentID, courseID); err == nil {
		return nil, newErr(KindConflict, CodeAlreadyEnrolled, "Already enrolled in this course")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	amount := courseModels.EffectivePrice(*course)
	if declaredAmount != 0 && declaredAmount != amount {
		log.Printf("enroll: declared amount %d differs from effective price %d for course %d", declaredAmount, amount, courseID)
	}

	if amount == 0 {
		enr, err := e.materialize(ctx, course, studentID, &payment.Intent{
			Amount:   0,
			Currency: course.Currency,
		}, courseModels.MethodFree)
		if err != nil {
			return nil, err
		}
		return &EnrollResult{Enrollment: enr}, nil
	}

	intent, err := e.gateway.CreateIntent(ctx, amount, course.Currency, map[string]string{
		"course_id":    strconv.FormatUint(uint64(courseID), 10),
		"student_id":   strconv.FormatUint(uint64(studentID), 10),
		"course_title": course.Title,
	})
	if err != nil {
		return nil, gatewayErr(err)
	}

	return &EnrollResult{Intent: intent}, nil
}

// ConfirmEnrollment materializes the enrollment once the provider reports
// the intent succeeded. It is idempotent by transaction id: a duplicate
// confirm (double submit, webhook race) returns the original enrollment.
// The provider's reported amount is authoritative for the payment record.
func (e *Engine) ConfirmEnrollment(ctx context.Context, studentID, courseID uint, intentID string) (*courseModels.Enrollment, error) {
	intent, err := e.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, gatewayErr(err)
	}
	if intent.Status != payment.IntentSucceeded {
		return nil, newErr(KindValidation, CodePaymentNotSucceeded, "Payment not completed")
	}

	if existing, err := e.enrollments.FindByTransaction(ctx, intent.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	course, err := e.courses.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeCourseNotFound, "Course not found")
		}
		return nil, err
	}

	return e.materialize(ctx, course, studentID, intent, courseModels.MethodCard)
}

// materialize creates the enrollment row (the conditional insert carries the
// uniqueness invariant), then performs the derived-cache and notification
// side effects. Roster append failures are logged, not rolled back: the
// append is idempotent and the reconciler repairs missed entries.
func (e *Engine) materialize(ctx context.Context, course *courseModels.Course, studentID uint, intent *payment.Intent, method string) (*courseModels.Enrollment, error) {
	now := time.Now()
	currency := intent.Currency
	if currency == "" {
		currency = course.Currency
	}

	enr := &courseModels.Enrollment{
		StudentID:     studentID,
		CourseID:      course.ID,
		Status:        courseModels.StatusActive,
		LastAccessed:  now,
		PaymentAmount: intent.Amount,
		Currency:      currency,
		PaymentMethod: method,
		PaymentStatus: courseModels.PaymentCompleted,
		TransactionID: intent.ID,
	}

	if err := e.enrollments.CreateLive(ctx, enr); err != nil {
		if errors.Is(err, store.ErrDuplicateEnrollment) {
			// Lost the race. If the winner carries the same transaction this
			// is a duplicate confirm and the winner is the right answer.
			if intent.ID != "" {
				if existing, ferr := e.enrollments.FindByTransaction(ctx, intent.ID); ferr == nil {
					return existing, nil
				}
			}
			return nil, newErr(KindConflict, CodeAlreadyEnrolled, "Already enrolled in this course")
		}
		return nil, err
	}

	if err := e.courses.AppendToRoster(ctx, course.ID, studentID); err != nil {
		log.Printf("enroll: roster append failed for course %d student %d: %v", course.ID, studentID, err)
	}
	e.notifyEnrolled(ctx, studentID, course.Title, enr.PaymentAmount, enr.Currency)

	return enr, nil
}

// UpdateModuleProgress marks a module complete or incomplete for the
// requesting student and persists the recomputed progress snapshot.
func (e *Engine) UpdateModuleProgress(ctx context.Context, enrollmentID, requesterID, moduleID uint, completed bool, quizScore int) (*courseModels.Enrollment, error) {
	enr, err := e.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeEnrollmentNotFound, "Enrollment not found")
		}
		return nil, err
	}
	if enr.StudentID != requesterID {
		return nil, newErr(KindNotAuthorized, CodeNotAuthorized, "Not authorized")
	}

	course, err := e.courses.GetWithModules(ctx, enr.CourseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeCourseNotFound, "Course not found")
		}
		return nil, err
	}

	known := false
	for _, m := range course.Modules {
		if m.ID == moduleID {
			known = true
			break
		}
	}
	if !known {
		return nil, newErr(KindNotFound, CodeModuleNotFound, "Module not found in this course")
	}

	completions, err := e.enrollments.Completions(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	wasIssued := enr.CertificateIssued
	res := progress.Apply(*enr, completions, course.Modules, course.CertificateEnabled, moduleID, completed, quizScore, time.Now())

	enr.OverallProgress = res.OverallProgress
	enr.Status = res.Status
	enr.CompletedAt = res.CompletedAt
	enr.LastAccessed = res.LastAccessed
	enr.CertificateIssued = res.CertificateIssued
	enr.CertificateIssuedAt = res.CertificateIssuedAt
	enr.CertificateSerial = res.CertificateSerial

	if err := e.enrollments.UpdateProgress(ctx, enr, res.Completions); err != nil {
		return nil, err
	}

	if res.CertificateIssued && !wasIssued {
		e.notifyCertificate(ctx, enr.StudentID, course.Title, res.CertificateSerial)
	}

	return enr, nil
}

// DropEnrollment transitions the enrollment to dropped. A drop is not a
// refund: the payment record is untouched.
func (e *Engine) DropEnrollment(ctx context.Context, enrollmentID, requesterID uint, isAdmin bool) (*courseModels.Enrollment, error) {
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

	if err := e.enrollments.MarkDropped(ctx, enrollmentID); err != nil {
		return nil, err
	}
	enr.Status = courseModels.StatusDropped
	return enr, nil
}

// RefundEnrollment issues the provider refund and then reconciles local
// state toward the provider's ledger. The gateway is the durable record of
// "was money actually returned": a persist failure is retried from the
// persist step only and the refund is never reissued.
func (e *Engine) RefundEnrollment(ctx context.Context, enrollmentID, requesterID uint, reason string) (*RefundResult, error) {
	if reason == "" {
		return nil, newErr(KindValidation, CodeInvalidInput, "Refund reason is required")
	}

	enr, err := e.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(KindNotFound, CodeEnrollmentNotFound, "Enrollment not found")
		}
		return nil, err
	}
	if enr.StudentID != requesterID {
		return nil, newErr(KindNotAuthorized, CodeNotAuthorized, "Not authorized")
	}
	if !enr.IsRefundable() {
		return nil, newErr(KindValidation, CodeRefundUnavailable, "Refund not available for this payment method")
	}
	if enr.PaymentStatus == courseModels.PaymentRefunded {
		return nil, newErr(KindConflict, CodeAlreadyRefunded, "Payment already refunded")
	}

	refund, err := e.gateway.CreateRefund(ctx, enr.TransactionID, reason)
	if err != nil {
		if errors.Is(err, payment.ErrAlreadyRefunded) {
			// The provider already returned the money (a previous attempt
			// died between gateway and persist); pick up from the persist
			// step and align local state with the provider. No refund id is
			// known on this path, so none is reported.
			refund = &payment.Refund{Amount: enr.PaymentAmount, Status: "succeeded"}
		} else {
			return nil, gatewayErr(err)
		}
	}

	if err := e.enrollments.MarkRefunded(ctx, enrollmentID); err != nil {
		// Money is already back with the student; retry the persist once
		// before surfacing. The gateway call is not repeated.
		log.Printf("refund: persist failed for enrollment %d, retrying: %v", enrollmentID, err)
		if err := e.enrollments.MarkRefunded(ctx, enrollmentID); err != nil {
			return nil, err
		}
	}

	return &RefundResult{RefundID: refund.ID, Amount: refund.Amount, Status: refund.Status}, nil
}

// HandleWebhookEvent verifies, records and reacts to a provider delivery.
// Recording is the idempotency guard: replays of the same event id are
// no-ops. Unhandled event types are recorded and acknowledged.
func (e *Engine) HandleWebhookEvent(ctx context.Context, rawBody []byte, signatureHeader string) error {
	event, err := e.gateway.VerifyWebhook(rawBody, signatureHeader)
	if err != nil {
		return wrapErr(KindSignatureInvalid, CodeSignatureInvalid, "Webhook signature verification failed", err)
	}

	record := &courseModels.WebhookEvent{
		EventID:    event.ID,
		Type:       event.Type,
		IntentID:   event.Intent.ID,
		Payload:    string(event.Raw),
		ReceivedAt: time.Now(),
	}
	if err := e.webhooks.Record(ctx, record); err != nil {
		if errors.Is(err, store.ErrEventSeen) {
			return nil // at-least-once replay
		}
		return err
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		if err := e.applySucceededEvent(ctx, event); err != nil {
			// The record must not survive a failed apply, or the provider's
			// redelivery would dedupe into a no-op and the paid enrollment
			// would never materialize.
			if derr := e.webhooks.Discard(ctx, event.ID); derr != nil {
				log.Printf("webhook: discarding event %s after failed apply: %v", event.ID, derr)
			}
			return err
		}
		return nil
	case payment.EventPaymentFailed:
		// No enrollment exists yet to mark failed; the recorded event is
		// the audit entry.
		log.Printf("webhook: payment failed for intent %s", event.Intent.ID)
		return nil
	default:
		log.Printf("webhook: unhandled event type %s", event.Type)
		return nil
	}
}

func (e *Engine) applySucceededEvent(ctx context.Context, event *payment.Event) error {
	studentID, sok := parseID(event.Intent.Metadata["student_id"])
	courseID, cok := parseID(event.Intent.Metadata["course_id"])
	if !sok || !cok {
		log.Printf("webhook: intent %s missing enrollment metadata", event.Intent.ID)
		return nil
	}

	if _, err := e.enrollments.FindByTransaction(ctx, event.Intent.ID); err == nil {
		return nil // the client confirm already materialized it
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := e.enrollments.FindLive(ctx, studentID, courseID); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	course, err := e.courses.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("webhook: intent %s references unknown course %d", event.Intent.ID, courseID)
			return nil
		}
		return err
	}

	_, err = e.materialize(ctx, course, studentID, &event.Intent, courseModels.MethodCard)
	if err != nil {
		var appErr *Error
		if errors.As(err, &appErr) && appErr.Code == CodeAlreadyEnrolled {
			return nil // race with a concurrent confirm; already consistent
		}
	}
	return err
}

func (e *Engine) notifyEnrolled(ctx context.Context, studentID uint, courseTitle string, amount int64, currency string) {
	if e.mailer == nil {
		return
	}
	user, err := e.users.Get(ctx, studentID)
	if err != nil {
		log.Printf("enroll: lookup student %d for email failed: %v", studentID, err)
		return
	}
	if err := e.mailer.SendEnrollmentConfirmation(user.Email, courseTitle, amount, currency); err != nil {
		log.Printf("enroll: confirmation email to %s failed: %v", user.Email, err)
	}
}

func (e *Engine) notifyCertificate(ctx context.Context, studentID uint, courseTitle, serial string) {
	if e.mailer == nil {
		return
	}
	user, err := e.users.Get(ctx, studentID)
	if err != nil {
		log.Printf("certificate: lookup student %d for email failed: %v", studentID, err)
		return
	}
	if err := e.mailer.SendCertificateIssued(user.Email, courseTitle, serial); err != nil {
		log.Printf("certificate: email to %s failed: %v", user.Email, err)
	}
}

func parseID(s string) (uint, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

func gatewayErr(err error) error {
	switch {
	case errors.Is(err, payment.ErrUnavailable):
		return wrapErr(KindGatewayUnavailable, CodeGatewayUnavailable, "Payment provider unavailable", err)
	case errors.Is(err, payment.ErrAlreadyRefunded):
		return wrapErr(KindConflict, CodeAlreadyRefunded, "Payment already refunded", err)
	case errors.Is(err, payment.ErrInvalidAmount):
		return wrapErr(KindValidation, CodeInvalidInput, "Invalid payment amount", err)
	case errors.Is(err, payment.ErrSignatureInvalid):
		return wrapErr(KindSignatureInvalid, CodeSignatureInvalid, "Webhook signature verification failed", err)
	default:
		return wrapErr(KindGatewayRejected, CodeGatewayRejected, "Payment provider rejected the request", err)
	}
}
