package progress

import (
	"time"

	"github.com/google/uuid"

	courseModels "lms/models/course"
)

// Result is the recomputed progress state for an enrollment. It is derived
// from snapshots only; the caller decides whether and how to persist it.
type Result struct {
	Completions     []courseModels.CompletedModule
	OverallProgress int
	Status          string
	CompletedAt     *time.Time
	LastAccessed    time.Time

	CertificateIssued   bool
	CertificateIssuedAt *time.Time
	CertificateSerial   string
}

// Overall is round(100 * completed / total), clamped to 0 for courses with
// no modules.
func Overall(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int((float64(completed)/float64(total))*100 + 0.5)
}

// Eligible reports certificate eligibility for a progress percentage.
func Eligible(overallProgress int, certificateEnabled bool) bool {
	return overallProgress == 100 && certificateEnabled
}

// Apply marks one module complete or incomplete and recomputes the derived
// state against the course's current module list. Both directions are
// idempotent on module-set membership: re-completing an already-completed
// module keeps the original entry, removing an absent one changes nothing.
// LastAccessed is bumped on every call, whether or not the set changed.
//
// modules must be the course's live module list, never a cached one, so
// editing a course after enrollment shifts percentages correctly. The
// percentage counts only completions that intersect the live list: stale
// entries for modules since removed from the course stay in the set as
// history but never push progress past 100.
// An issued certificate is never revoked, even if completions are removed.
func Apply(enr courseModels.Enrollment, completions []courseModels.CompletedModule, modules []courseModels.Module, certificateEnabled bool, moduleID uint, completed bool, quizScore int, now time.Time) Result {
	live := make(map[uint]bool, len(modules))
	for _, m := range modules {
		live[m.ID] = true
	}

	next := make([]courseModels.CompletedModule, 0, len(completions)+1)
	present := false
	for _, cm := range completions {
		if cm.ModuleID == moduleID {
			present = true
			if !completed {
				continue // idempotent removal
			}
		}
		next = append(next, cm)
	}
	if completed && !present {
		next = append(next, courseModels.CompletedModule{
			EnrollmentID: enr.ID,
			ModuleID:     moduleID,
			CompletedAt:  now,
			QuizScore:    quizScore,
		})
	}

	liveCompleted := 0
	for _, cm := range next {
		if live[cm.ModuleID] {
			liveCompleted++
		}
	}

	res := Result{
		Completions:     next,
		OverallProgress: Overall(liveCompleted, len(modules)),
		Status:          enr.Status,
		CompletedAt:     enr.CompletedAt,
		LastAccessed:    now,

		CertificateIssued:   enr.CertificateIssued,
		CertificateIssuedAt: enr.CertificateIssuedAt,
		CertificateSerial:   enr.CertificateSerial,
	}

	if res.OverallProgress == 100 {
		res.Status = courseModels.StatusCompleted
		if res.CompletedAt == nil {
			t := now
			res.CompletedAt = &t
		}
		if Eligible(res.OverallProgress, certificateEnabled) && !res.CertificateIssued {
			t := now
			res.CertificateIssued = true
			res.CertificateIssuedAt = &t
			res.CertificateSerial = uuid.NewString()
		}
	} else if enr.Status == courseModels.StatusCompleted {
		// Progress dropped below 100 after a removal; the enrollment goes
		// back to active but the certificate, once issued, stays issued.
		res.Status = courseModels.StatusActive
	}

	return res
}
