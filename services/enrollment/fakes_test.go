package enrollment

import (
	"context"
	"sync"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/services/payment"
	"lms/store"
)

// In-memory collaborators for engine tests. The enrollment fake reproduces
// the database's conditional-insert semantics: the live-pair check and the
// insert happen under one lock, so concurrent creates race exactly like
// they would against the partial unique index.

type memCourses struct {
	mu      sync.Mutex
	courses map[uint]*courseModels.Course
	roster  map[[2]uint]bool

	failGets int // Get failures to inject
}

func newMemCourses() *memCourses {
	return &memCourses{
		courses: make(map[uint]*courseModels.Course),
		roster:  make(map[[2]uint]bool),
	}
}

func (m *memCourses) add(c courseModels.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = &c
}

func (m *memCourses) Get(_ context.Context, id uint) (*courseModels.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGets > 0 {
		m.failGets--
		return nil, errTransient
	}
	c, ok := m.courses[id]
	if !ok || c.IsDeleted {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Modules = nil
	return &cp, nil
}

func (m *memCourses) GetWithModules(_ context.Context, id uint) (*courseModels.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok || c.IsDeleted {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Modules = append([]courseModels.Module(nil), c.Modules...)
	return &cp, nil
}

func (m *memCourses) AppendToRoster(_ context.Context, courseID, studentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[[2]uint{courseID, studentID}] = true
	return nil
}

func (m *memCourses) Roster(_ context.Context, courseID uint) ([]courseModels.RosterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []courseModels.RosterEntry
	for pair := range m.roster {
		if pair[0] == courseID {
			entries = append(entries, courseModels.RosterEntry{CourseID: pair[0], StudentID: pair[1]})
		}
	}
	return entries, nil
}

func (m *memCourses) onRoster(courseID, studentID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roster[[2]uint{courseID, studentID}]
}

type memEnrollments struct {
	mu          sync.Mutex
	nextID      uint
	rows        map[uint]*courseModels.Enrollment
	completions map[uint][]courseModels.CompletedModule

	failRefundPersist int // MarkRefunded failures to inject
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{
		rows:        make(map[uint]*courseModels.Enrollment),
		completions: make(map[uint][]courseModels.CompletedModule),
	}
}

func (m *memEnrollments) seed(enr courseModels.Enrollment) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	enr.ID = m.nextID
	m.rows[enr.ID] = &enr
	return enr.ID
}

func (m *memEnrollments) seedCompletions(enrollmentID uint, moduleIDs ...uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range moduleIDs {
		m.completions[enrollmentID] = append(m.completions[enrollmentID], courseModels.CompletedModule{
			EnrollmentID: enrollmentID,
			ModuleID:     id,
			CompletedAt:  time.Now(),
		})
	}
}

func (m *memEnrollments) CreateLive(_ context.Context, enr *courseModels.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.StudentID == enr.StudentID && row.CourseID == enr.CourseID &&
			row.Status != courseModels.StatusDropped {
			return store.ErrDuplicateEnrollment
		}
	}
	m.nextID++
	enr.ID = m.nextID
	enr.CreatedAt = time.Now()
	cp := *enr
	m.rows[enr.ID] = &cp
	return nil
}

func (m *memEnrollments) Get(_ context.Context, id uint) (*courseModels.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memEnrollments) FindLive(_ context.Context, studentID, courseID uint) (*courseModels.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.StudentID == studentID && row.CourseID == courseID &&
			row.Status != courseModels.StatusDropped {
			cp := *row
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEnrollments) FindByTransaction(_ context.Context, transactionID string) (*courseModels.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if transactionID != "" && row.TransactionID == transactionID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEnrollments) ListByStudent(_ context.Context, studentID uint) ([]courseModels.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []courseModels.Enrollment
	for _, row := range m.rows {
		if row.StudentID == studentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memEnrollments) Completions(_ context.Context, enrollmentID uint) ([]courseModels.CompletedModule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]courseModels.CompletedModule(nil), m.completions[enrollmentID]...), nil
}

func (m *memEnrollments) UpdateProgress(_ context.Context, enr *courseModels.Enrollment, completions []courseModels.CompletedModule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *enr
	m.rows[enr.ID] = &cp
	m.completions[enr.ID] = append([]courseModels.CompletedModule(nil), completions...)
	return nil
}

func (m *memEnrollments) MarkRefunded(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRefundPersist > 0 {
		m.failRefundPersist--
		return errPersist
	}
	row, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.PaymentStatus = courseModels.PaymentRefunded
	row.Status = courseModels.StatusDropped
	return nil
}

func (m *memEnrollments) MarkDropped(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Status = courseModels.StatusDropped
	return nil
}

func (m *memEnrollments) LivePairs(_ context.Context) ([]store.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pairs []store.Pair
	for _, row := range m.rows {
		if row.Status != courseModels.StatusDropped {
			pairs = append(pairs, store.Pair{StudentID: row.StudentID, CourseID: row.CourseID})
		}
	}
	return pairs, nil
}

func (m *memEnrollments) CountByStatus(_ context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, row := range m.rows {
		if status == "" || row.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memEnrollments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memWebhooks struct {
	mu   sync.Mutex
	seen map[string]bool
	rows []courseModels.WebhookEvent
}

func newMemWebhooks() *memWebhooks {
	return &memWebhooks{seen: make(map[string]bool)}
}

func (m *memWebhooks) Record(_ context.Context, event *courseModels.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[event.EventID] {
		return store.ErrEventSeen
	}
	m.seen[event.EventID] = true
	m.rows = append(m.rows, *event)
	return nil
}

func (m *memWebhooks) Discard(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.EventID != eventID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

type memUsers struct{}

func (memUsers) Get(_ context.Context, id uint) (*models.User, error) {
	user := &models.User{Name: "Student", Email: "student@example.com", Role: "student"}
	user.ID = id
	return user, nil
}

type fakeGateway struct {
	mu sync.Mutex

	intents     map[string]*payment.Intent
	retrieveErr error

	refunded    map[string]bool
	refundErr   error
	refundCalls int

	event     *payment.Event
	verifyErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  make(map[string]*payment.Intent),
		refunded: make(map[string]bool),
	}
}

func (g *fakeGateway) addIntent(intent payment.Intent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intent.ID] = &intent
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := &payment.Intent{
		ID:           "pi_created",
		ClientSecret: "pi_created_secret",
		Amount:       amount,
		Currency:     currency,
		Status:       payment.IntentRequiresAction,
		Metadata:     metadata,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	intent, ok := g.intents[id]
	if !ok {
		return nil, payment.ErrRejected
	}
	cp := *intent
	return &cp, nil
}

func (g *fakeGateway) VerifyWebhook(payload []byte, _ string) (*payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	ev := *g.event
	ev.Raw = payload
	return &ev, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, transactionID, _ string) (*payment.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	if g.refunded[transactionID] {
		return nil, payment.ErrAlreadyRefunded
	}
	g.refundCalls++
	g.refunded[transactionID] = true
	return &payment.Refund{ID: "re_1", Amount: 4999, Status: "succeeded"}, nil
}
