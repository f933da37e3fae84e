package notify

import (
	"errors"
	"strings"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

// Message translates an error into a user-facing string. Known backend
// messages get specific guidance; typed transport errors get generic
// connectivity advice; anything else gets a safe fallback. Raw error
// text is never shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid credentials"):
		return "Invalid email or password. Please try again."
	case strings.Contains(msg, "User already exists"):
		return "An account with this email already exists."
	case strings.Contains(msg, "User not found"):
		return "Account not found. Please check your email."
	}

	var netErr *api.NetworkError
	var timeoutErr *api.TimeoutError
	if errors.As(err, &netErr) || errors.As(err, &timeoutErr) {
		return "Please check your internet connection and try again."
	}

	var serverErr *api.ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}

	var authErr *api.AuthenticationError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}

	var validationErr *api.ValidationError
	if errors.As(err, &validationErr) && validationErr.Message != "" {
		return validationErr.Message
	}

	return "Something went wrong. Please try again."
}
