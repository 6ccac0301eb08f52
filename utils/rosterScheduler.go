package utils

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"lms/store"
)

// StartRosterReconciler starts the cron job that repairs the course roster
// cache from the enrollment table. The roster is derived state: an append
// can be lost if the process dies between enrollment insert and roster
// write, and this job re-applies it. Every write is idempotent, so running
// it against an already-consistent roster changes nothing.
func StartRosterReconciler(spec string, courses store.CourseStore, enrollments store.EnrollmentStore) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		reconcileRoster(courses, enrollments)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("Roster reconciler scheduled: %s", spec)
	return c, nil
}

func reconcileRoster(courses store.CourseStore, enrollments store.EnrollmentStore) {
	ctx := context.Background()

	pairs, err := enrollments.LivePairs(ctx)
	if err != nil {
		log.Printf("roster reconcile: listing live enrollments failed: %v", err)
		return
	}

	repaired := 0
	for _, pair := range pairs {
		if err := courses.AppendToRoster(ctx, pair.CourseID, pair.StudentID); err != nil {
			log.Printf("roster reconcile: append course %d student %d failed: %v", pair.CourseID, pair.StudentID, err)
			continue
		}
		repaired++
	}

	log.Printf("roster reconcile: processed %d live enrollments", repaired)
}
