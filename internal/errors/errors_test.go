package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("db down")
	wrapped := Wrap(ErrAssetNotFound, cause)

	if !errors.Is(wrapped, ErrAssetNotFound) {
		t.Error("wrapped error should match its sentinel")
	}
	if errors.Is(wrapped, ErrUserNotFound) {
		t.Error("wrapped error should not match another sentinel")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !errors.Is(WithMessage(ErrMissingField, "Missing required field: name"), ErrMissingField) {
		t.Error("re-messaged error should match its sentinel")
	}
}

func TestAppError_Response(t *testing.T) {
	declined := WithDetail(ErrPaymentDeclined, "Your card was declined.", nil)
	resp := declined.Response()

	if resp.Error != "Payment method declined" || resp.Code != "PAYMENT_DECLINED" || resp.Message != "Your card was declined." {
		t.Errorf("unexpected response %+v", resp)
	}
	if declined.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", declined.StatusCode)
	}

	plain := ErrDuplicateEmail.Response()
	if plain.Message != "" {
		t.Errorf("expected no detail, got %q", plain.Message)
	}
}
