package enrollment

import "fmt"

// Kind classifies engine errors for the API layer. The kind and code are
// stable; messages are for humans and may change.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotAuthorized
	KindConflict
	KindNotFound
	KindGatewayUnavailable
	KindGatewayRejected
	KindSignatureInvalid
)

// Stable error codes surfaced to clients.
const (
	CodeCourseUnavailable   = "course_unavailable"
	CodeCourseNotFound      = "course_not_found"
	CodeEnrollmentNotFound  = "enrollment_not_found"
	CodeModuleNotFound      = "module_not_found"
	CodeAlreadyEnrolled     = "already_enrolled"
	CodeAlreadyRefunded     = "already_refunded"
	CodeNotAuthorized       = "not_authorized"
	CodePaymentNotSucceeded = "payment_not_succeeded"
	CodeRefundUnavailable   = "refund_unavailable"
	CodeInvalidInput        = "invalid_input"
	CodeGatewayUnavailable  = "gateway_unavailable"
	CodeGatewayRejected     = "gateway_rejected"
	CodeSignatureInvalid    = "signature_invalid"
)

// Error is a kind-tagged business error. No internal detail beyond the
// message crosses the API boundary.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two engine errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newErr(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func wrapErr(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}
