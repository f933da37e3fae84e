package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecotrace/ecotrace-go/internal/core"
)

// Service is the surface of the EcoTrace REST backend consumed by the
// client. The HTTP implementation is Client; tests use Mock.
type Service interface {
	Login(ctx context.Context, email, password string) (User, error)
	Signup(ctx context.Context, username, email, password string) (User, error)

	GetHabits(ctx context.Context) ([]Habit, error)
	GetChallenges(ctx context.Context) ([]Challenge, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetUserByID(ctx context.Context, id int) (User, error)

	CompleteHabit(ctx context.Context, userID, habitID int) (CompletionResult, error)
	TrackHabit(ctx context.Context, userID, habitID int) (User, error)
	UntrackHabit(ctx context.Context, userID, habitID int) (User, error)

	JoinChallenge(ctx context.Context, userID, challengeID int) error
	LeaveChallenge(ctx context.Context, userID, challengeID int) error

	UpdateUserProfile(ctx context.Context, userID int, updates ProfileUpdate) (User, error)

	// ValidateSession reports whether the backend still recognizes the
	// user. It never returns an error for a definitive "invalid" answer;
	// a non-nil error always means the question could not be answered
	// (network partition, timeout, server fault).
	ValidateSession(ctx context.Context, userID int) (bool, error)

	HealthCheck(ctx context.Context) (HealthStatus, error)
}

// NotFoundError indicates the requested resource does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "The requested resource was not found"
	}
	return e.Message
}

// Retryable mirrors the default policy: not-found responses are treated
// like any other server answer and may be retried.
func (e *NotFoundError) Retryable() bool { return true }

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	probeClient *http.Client
	logger      *slog.Logger
}

// NewClient creates an API client bound to the configured base URL.
// General calls are bounded by cfg.NetworkTimeout; connectivity probes
// use the shorter cfg.ConnectionTestTimeout.
func NewClient(cfg core.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.NetworkTimeout},
		probeClient: &http.Client{Timeout: cfg.ConnectionTestTimeout},
		logger:      logger,
	}
}

// request performs an HTTP call and decodes the JSON payload into out.
// HTTP error statuses are translated into the typed error taxonomy; the
// client never retries on its own (that is the retry engine's job).
func (c *Client) request(ctx context.Context, method, endpoint string, body, out any) error {
	url := c.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	c.logger.Debug("api response", "method", method, "url", url,
		"status", resp.StatusCode, "bytes", len(payload))

	if resp.StatusCode >= 400 {
		return classifyStatus(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ServerError{StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("non-JSON response: %.100s", payload)}
	}
	return nil
}

// classifyTransportError maps a failed round trip onto the taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &NetworkError{Err: err}
}

// classifyStatus maps an HTTP error status onto the taxonomy.
func classifyStatus(status int, payload []byte) error {
	var body errorBody
	_ = json.Unmarshal(payload, &body)

	switch status {
	case http.StatusBadRequest:
		if body.Error != "" {
			return &ValidationError{Message: body.Error}
		}
		return &ValidationError{}
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: "Authentication failed. Please log in again."}
	case http.StatusForbidden:
		return &AuthenticationError{Message: "Access denied. You don't have permission for this action."}
	case http.StatusNotFound:
		return &NotFoundError{}
	case http.StatusTooManyRequests:
		return &ServerError{StatusCode: status, Message: "Too many requests. Please try again later."}
	case http.StatusServiceUnavailable:
		return &ServerError{StatusCode: status, Message: "Service temporarily unavailable. Please try again later."}
	default:
		msg := body.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return &ServerError{StatusCode: status, Message: msg}
	}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp authResponse
	err := c.request(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	return resp.User, err
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, email, password string) (User, error) {
	var resp authResponse
	err := c.request(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	return resp.User, err
}

// GetHabits returns the full habit catalog.
func (c *Client) GetHabits(ctx context.Context) ([]Habit, error) {
	var habits []Habit
	err := c.request(ctx, http.MethodGet, "/habits", nil, &habits)
	return habits, err
}

// GetChallenges returns the active community challenges.
func (c *Client) GetChallenges(ctx context.Context) ([]Challenge, error) {
	var challenges []Challenge
	err := c.request(ctx, http.MethodGet, "/challenges", nil, &challenges)
	return challenges, err
}

// GetUsers returns all users (leaderboard source).
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.request(ctx, http.MethodGet, "/users", nil, &users)
	return users, err
}

// GetUserByID returns a single user record.
func (c *Client) GetUserByID(ctx context.Context, id int) (User, error) {
	var user User
	err := c.request(ctx, http.MethodGet, fmt.Sprintf("/user/%d", id), nil, &user)
	return user, err
}

// CompleteHabit records a habit completion and returns the earned points.
func (c *Client) CompleteHabit(ctx context.Context, userID, habitID int) (CompletionResult, error) {
	var result CompletionResult
	err := c.request(ctx, http.MethodPost, "/habits/complete", map[string]int{
		"userId":  userID,
		"habitId": habitID,
	}, &result)
	return result, err
}

// TrackHabit adds a habit to the user's tracked set.
func (c *Client) TrackHabit(ctx context.Context, userID, habitID int) (User, error) {
	var resp userResponse
	err := c.request(ctx, http.MethodPost, "/habits/track", map[string]int{
		"userId":  userID,
		"habitId": habitID,
	}, &resp)
	return resp.User, err
}

// UntrackHabit removes a habit from the user's tracked set.
func (c *Client) UntrackHabit(ctx context.Context, userID, habitID int) (User, error) {
	var resp userResponse
	err := c.request(ctx, http.MethodPost, "/habits/untrack", map[string]int{
		"userId":  userID,
		"habitId": habitID,
	}, &resp)
	return resp.User, err
}

// JoinChallenge enrolls the user in a challenge.
func (c *Client) JoinChallenge(ctx context.Context, userID, challengeID int) error {
	return c.request(ctx, http.MethodPost, "/challenges/join", map[string]int{
		"userId":      userID,
		"challengeId": challengeID,
	}, nil)
}

// LeaveChallenge withdraws the user from a challenge.
func (c *Client) LeaveChallenge(ctx context.Context, userID, challengeID int) error {
	return c.request(ctx, http.MethodPost, "/challenges/leave", map[string]int{
		"userId":      userID,
		"challengeId": challengeID,
	}, nil)
}

// UpdateUserProfile applies a partial profile update and returns the
// full updated record.
func (c *Client) UpdateUserProfile(ctx context.Context, userID int, updates ProfileUpdate) (User, error) {
	var user User
	err := c.request(ctx, http.MethodPut, fmt.Sprintf("/user/%d", userID), updates, &user)
	return user, err
}

// ValidateSession checks whether the backend still knows the user.
// A not-found or rejected answer is definitive (false, nil); transport
// faults propagate so the caller can apply offline-trust policy.
func (c *Client) ValidateSession(ctx context.Context, userID int) (bool, error) {
	_, err := c.GetUserByID(ctx, userID)
	if err == nil {
		return true, nil
	}

	var notFound *NotFoundError
	var auth *AuthenticationError
	var invalid *ValidationError
	if errors.As(err, &notFound) || errors.As(err, &auth) || errors.As(err, &invalid) {
		return false, nil
	}
	return false, err
}

// HealthCheck returns the backend health status.
func (c *Client) HealthCheck(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.request(ctx, http.MethodGet, "/health", nil, &status)
	return status, err
}

// TestConnection probes the backend with the short connectivity timeout.
func (c *Client) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/habits", nil)
	if err != nil {
		return false
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.logger.Debug("connection test failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}
