package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	controllers "lms/controllers/enrollment"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/routers/enrollmentRoutes"
	"lms/services/enrollment"
	"lms/services/payment"
	"lms/store"
)

const testJWTSecret = "test-secret"

// Minimal stubs: the handler tests only exercise routing, auth and the
// error-to-status mapping; engine behavior is covered in its own package.

type stubCourses struct{}

func (stubCourses) Get(context.Context, uint) (*courseModels.Course, error) {
	return nil, store.ErrNotFound
}
func (stubCourses) GetWithModules(context.Context, uint) (*courseModels.Course, error) {
	return nil, store.ErrNotFound
}
func (stubCourses) AppendToRoster(context.Context, uint, uint) error { return nil }
func (stubCourses) Roster(context.Context, uint) ([]courseModels.RosterEntry, error) {
	return nil, nil
}

type stubEnrollments struct{}

func (stubEnrollments) CreateLive(context.Context, *courseModels.Enrollment) error { return nil }
func (stubEnrollments) Get(context.Context, uint) (*courseModels.Enrollment, error) {
	return nil, store.ErrNotFound
}
func (stubEnrollments) FindLive(context.Context, uint, uint) (*courseModels.Enrollment, error) {
	return nil, store.ErrNotFound
}
func (stubEnrollments) FindByTransaction(context.Context, string) (*courseModels.Enrollment, error) {
	return nil, store.ErrNotFound
}
func (stubEnrollments) ListByStudent(context.Context, uint) ([]courseModels.Enrollment, error) {
	return nil, nil
}
func (stubEnrollments) Completions(context.Context, uint) ([]courseModels.CompletedModule, error) {
	return nil, nil
}
func (stubEnrollments) UpdateProgress(context.Context, *courseModels.Enrollment, []courseModels.CompletedModule) error {
	return nil
}
func (stubEnrollments) MarkRefunded(context.Context, uint) error      { return nil }
func (stubEnrollments) MarkDropped(context.Context, uint) error       { return nil }
func (stubEnrollments) LivePairs(context.Context) ([]store.Pair, error) { return nil, nil }
func (stubEnrollments) CountByStatus(context.Context, string) (int64, error) { return 0, nil }

type stubWebhooks struct{}

func (stubWebhooks) Record(context.Context, *courseModels.WebhookEvent) error { return nil }
func (stubWebhooks) Discard(context.Context, string) error                    { return nil }

type stubUsers struct{}

func (stubUsers) Get(context.Context, uint) (*models.User, error) {
	return &models.User{}, nil
}

type stubGateway struct{}

func (stubGateway) CreateIntent(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
	return nil, payment.ErrRejected
}
func (stubGateway) RetrieveIntent(context.Context, string) (*payment.Intent, error) {
	return nil, payment.ErrRejected
}
func (stubGateway) VerifyWebhook(payload []byte, signatureHeader string) (*payment.Event, error) {
	if signatureHeader != "valid" {
		return nil, payment.ErrSignatureInvalid
	}
	return &payment.Event{ID: "evt_1", Type: "charge.updated", Raw: payload}, nil
}
func (stubGateway) CreateRefund(context.Context, string, string) (*payment.Refund, error) {
	return nil, payment.ErrRejected
}

func testApp() *fiber.App {
	engine := enrollment.New(stubCourses{}, stubEnrollments{}, stubWebhooks{}, stubUsers{}, stubGateway{}, nil)
	app := fiber.New()
	enrollmentRoutes.SetupEnrollmentRoutes(app, testJWTSecret, controllers.NewEnrollmentController(engine))
	return app
}

func TestWebhookBadSignature(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/payments/webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "bogus")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookAcknowledgesUnhandledType(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/payments/webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "valid")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, true, parsed["received"])
}

func TestEnrollRequiresAuth(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/enrollment/enroll", bytes.NewBufferString(`{"course_id":5}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestEnrollValidation(t *testing.T) {
	app := testApp()
	token, err := middleware.GenerateJWT(testJWTSecret, 3, "Student", "student", "student@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/enrollment/enroll", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCourseRosterRequiresAdmin(t *testing.T) {
	app := testApp()
	token, err := middleware.GenerateJWT(testJWTSecret, 3, "Student", "student", "student@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/enrollment/course/1/roster", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestEnrollUnknownCourse(t *testing.T) {
	app := testApp()
	token, err := middleware.GenerateJWT(testJWTSecret, 3, "Student", "student", "student@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/enrollment/enroll", bytes.NewBufferString(`{"course_id":5,"amount":4999}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
