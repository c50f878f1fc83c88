package services_test

import (
	"errors"
	"strings"
	"testing"

	"mediaforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrTranscodeFailure, "transcode", "gif_to_video", "ffmpeg failed", base)
	if !errors.Is(err, services.ErrTranscodeFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode", "gif_to_video", "ffmpeg failed", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaults(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsUserFacing(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrNotFound, "resolver", "find", "no media", nil), true},
		{services.Wrap(services.ErrUnsupportedConversion, "transcode", "to_audio", "", nil), true},
		{services.Wrap(services.ErrTranscodeFailure, "transcode", "", "", nil), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.IsUserFacing(tc.err); got != tc.want {
			t.Fatalf("IsUserFacing(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
