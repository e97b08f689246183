package services_test

import (
	"errors"
	"strings"
	"testing"

	"mashup/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExport, "export", "encode", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"export", "encode", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"invalid input", services.Wrap(services.ErrInvalidInput, "validate", "", "too few items", nil), services.KindInvalidInput},
		{"acquisition", services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", nil), services.KindAcquisition},
		{"item", services.Wrap(services.ErrItemProcessing, "extract", "decode", "bad file", errors.New("eof")), services.KindItemProcessing},
		{"export", services.Wrap(services.ErrExport, "export", "", "", nil), services.KindExport},
		{"configuration", services.Wrap(services.ErrConfiguration, "deps", "", "ffmpeg missing", nil), services.KindConfiguration},
		{"delivery", services.Wrap(services.ErrDelivery, "deliver", "send", "", nil), services.KindDelivery},
		{"plain", errors.New("plain"), services.KindUnknown},
		{"nil", nil, services.KindUnknown},
	}
	for _, tc := range cases {
		if got := services.KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(nil) {
		t.Fatal("nil error should not be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrItemProcessing, "extract", "", "", nil)) {
		t.Fatal("item processing errors are absorbed")
	}
	if !services.IsFatal(services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", nil)) {
		t.Fatal("acquisition errors are fatal")
	}
}

func TestMessageStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", nil)
	if got := services.Message(err); got != "acquire: no items acquired" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := services.Message(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}
