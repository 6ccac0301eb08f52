package course

import "time"

// RosterEntry is the course-side cache of enrolled students, derived from
// enrollments. Writes are ON CONFLICT DO NOTHING; readers tolerate brief
// staleness between enrollment creation and the roster append landing.
type RosterEntry struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CourseID   uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_roster_pair"`
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_roster_pair"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
