package notify

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

func TestMessageMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			"invalid credentials",
			&api.AuthenticationError{Message: "Invalid credentials"},
			"Invalid email or password. Please try again.",
		},
		{
			"duplicate account",
			&api.ValidationError{Message: "User already exists"},
			"An account with this email already exists.",
		},
		{
			"unknown account",
			&api.NotFoundError{Message: "User not found"},
			"Account not found. Please check your email.",
		},
		{
			"network failure",
			&api.NetworkError{Err: errors.New("connection refused")},
			"Please check your internet connection and try again.",
		},
		{
			"timeout",
			&api.TimeoutError{Err: errors.New("deadline exceeded")},
			"Please check your internet connection and try again.",
		},
		{
			"server message passes through",
			&api.ServerError{StatusCode: 503, Message: "Service temporarily unavailable. Please try again later."},
			"Service temporarily unavailable. Please try again later.",
		},
		{
			"unrecognized error",
			errors.New("ENOENT: no such file"),
			"Something went wrong. Please try again.",
		},
		{
			"nil error",
			nil,
			"",
		},
	}
	for _, tc := range cases {
		if got := Message(tc.err); got != tc.want {
			t.Errorf("%s: Message = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCenterLifecycle(t *testing.T) {
	c := NewCenter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	retried := false
	c.Error("boom", func() { retried = true }, "Try Again")
	c.Warning("careful")
	c.Success("done")

	pending := c.Notifications()
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	if pending[0].Level != LevelError || pending[0].RetryLabel != "Try Again" {
		t.Errorf("unexpected error notification: %+v", pending[0])
	}
	pending[0].Retry()
	if !retried {
		t.Error("retry action not wired")
	}

	c.Dismiss(pending[1].ID)
	if len(c.Notifications()) != 2 {
		t.Errorf("dismiss removed wrong count: %d", len(c.Notifications()))
	}

	c.DismissAll()
	if len(c.Notifications()) != 0 {
		t.Error("DismissAll left notifications behind")
	}
}
