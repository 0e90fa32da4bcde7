package domain

import (
	"errors"
	"testing"
)

func TestParseErrorMode(t *testing.T) {
	cases := []struct {
		code int
		want ErrorMode
		name string
	}{
		{0, ErrorModeAbs, "abs"},
		{1, ErrorModeRel, "rel"},
		{2, ErrorModeRelMinAbs, "rel_min_abs"},
	}
	for _, tc := range cases {
		got, err := ParseErrorMode(tc.code)
		if err != nil {
			t.Fatalf("code %d: unexpected error %v", tc.code, err)
		}
		if got != tc.want {
			t.Fatalf("code %d: expected %v, got %v", tc.code, tc.want, got)
		}
		if got.String() != tc.name {
			t.Fatalf("code %d: expected name %q, got %q", tc.code, tc.name, got.String())
		}
	}
}

func TestParseErrorModeRejectsUnknownCodes(t *testing.T) {
	for _, code := range []int{-1, 3, 42} {
		_, err := ParseErrorMode(code)
		var unknown ErrUnknownErrorMode
		if !errors.As(err, &unknown) {
			t.Fatalf("code %d: expected ErrUnknownErrorMode, got %v", code, err)
		}
		if unknown.Code != code {
			t.Fatalf("expected code %d recorded, got %d", code, unknown.Code)
		}
	}
	if ErrorMode(9).String() != "ErrorMode(9)" {
		t.Fatalf("unexpected string for unknown mode: %s", ErrorMode(9).String())
	}
}
