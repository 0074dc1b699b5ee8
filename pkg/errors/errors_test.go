package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodePartialFailure, status: http.StatusBadGateway, publicMsg: "operation partially completed", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "size is required")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}
	base.WithDetails(map[string]any{"field": "size"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "sync cart")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: sync cart: connection reset" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestCodeOfAndIsCode(t *testing.T) {
	inner := New(CodeNotFound, "line not found")
	outer := fmt.Errorf("update line: %w", inner)
	if CodeOf(outer) != CodeNotFound {
		t.Fatalf("expected not found, got %s", CodeOf(outer))
	}
	if !IsCode(outer, CodeNotFound) {
		t.Fatalf("IsCode should match through wrapping")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("plain errors should map to internal")
	}
	if IsCode(nil, CodeInternal) {
		t.Fatalf("nil should never match")
	}
}

func TestUserMessageHidesInternalDetail(t *testing.T) {
	if got := UserMessage(New(CodeValidation, "cart is empty")); got != "cart is empty" {
		t.Fatalf("validation message should pass through, got %q", got)
	}
	if got := UserMessage(Wrap(CodeInternal, stdErrors.New("pq: relation missing"), "insert order")); got != "internal server error" {
		t.Fatalf("internal detail leaked: %q", got)
	}
	if got := UserMessage(stdErrors.New("raw")); got != "internal server error" {
		t.Fatalf("untyped errors should be generic, got %q", got)
	}
}

func TestDumpCapturesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "order_lines_order_id_fkey", TableName: "order_lines"}
	err := Wrap(CodeInternal, pgErr, "insert order lines")

	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if d.PGCode != "23503" || d.PGConstraint != "order_lines_order_id_fkey" || d.PGTable != "order_lines" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
