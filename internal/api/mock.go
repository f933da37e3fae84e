package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Mock is an in-memory simulation of the EcoTrace backend sufficient
// for unit testing the sync and auth layers. It records every call for
// assertions and supports per-endpoint failure injection.
type Mock struct {
	mu         sync.Mutex
	users      []User
	habits     []Habit
	challenges []Challenge
	nextUserID int

	calls    []string
	failures map[string][]error // endpoint -> queued errors
	failWith map[string]error   // endpoint -> persistent error
}

// NewMock creates an empty mock backend.
func NewMock() *Mock {
	return &Mock{
		nextUserID: 1,
		failures:   make(map[string][]error),
		failWith:   make(map[string]error),
	}
}

// SeedUsers adds user records to the mock backend.
func (m *Mock) SeedUsers(users ...User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, users...)
	for _, u := range users {
		if u.ID >= m.nextUserID {
			m.nextUserID = u.ID + 1
		}
	}
}

// SeedHabits adds habits to the mock catalog.
func (m *Mock) SeedHabits(habits ...Habit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits = append(m.habits, habits...)
}

// SeedChallenges adds challenges to the mock catalog.
func (m *Mock) SeedChallenges(challenges ...Challenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges = append(m.challenges, challenges...)
}

// FailOnce queues a single failure for the named endpoint. Queued
// failures are consumed before the persistent failure, oldest first.
func (m *Mock) FailOnce(endpoint string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = append(m.failures[endpoint], err)
}

// FailAlways makes every call to the named endpoint fail with err until
// cleared with FailAlways(endpoint, nil).
func (m *Mock) FailAlways(endpoint string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failWith, endpoint)
		return
	}
	m.failWith[endpoint] = err
}

// RequestsMade returns the total number of calls recorded.
func (m *Mock) RequestsMade() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallsTo returns how many calls were made to the named endpoint.
func (m *Mock) CallsTo(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == endpoint {
			n++
		}
	}
	return n
}

// Reset clears recorded calls and failure injection, keeping seeded data.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.failures = make(map[string][]error)
	m.failWith = make(map[string]error)
}

// record tracks the call and returns any injected failure.
func (m *Mock) record(endpoint string) error {
	m.calls = append(m.calls, endpoint)
	if queued := m.failures[endpoint]; len(queued) > 0 {
		err := queued[0]
		m.failures[endpoint] = queued[1:]
		return err
	}
	return m.failWith[endpoint]
}

func (m *Mock) findUser(id int) (int, bool) {
	for i, u := range m.users {
		if u.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Login authenticates against the seeded users by email.
func (m *Mock) Login(ctx context.Context, email, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("login"); err != nil {
		return User{}, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, &AuthenticationError{Message: "Invalid credentials"}
}

// Signup registers a new user.
func (m *Mock) Signup(ctx context.Context, username, email, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("signup"); err != nil {
		return User{}, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return User{}, &ValidationError{Message: "User already exists"}
		}
	}
	user := User{
		ID:            m.nextUserID,
		Username:      username,
		Email:         email,
		TrackedHabits: []int{},
	}
	m.nextUserID++
	m.users = append(m.users, user)
	return user, nil
}

// GetHabits returns the seeded habit catalog.
func (m *Mock) GetHabits(ctx context.Context) ([]Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getHabits"); err != nil {
		return nil, err
	}
	return append([]Habit(nil), m.habits...), nil
}

// GetChallenges returns the seeded challenges.
func (m *Mock) GetChallenges(ctx context.Context) ([]Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getChallenges"); err != nil {
		return nil, err
	}
	return append([]Challenge(nil), m.challenges...), nil
}

// GetUsers returns the seeded users.
func (m *Mock) GetUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getUsers"); err != nil {
		return nil, err
	}
	return append([]User(nil), m.users...), nil
}

// GetUserByID returns the user with the given id.
func (m *Mock) GetUserByID(ctx context.Context, id int) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getUserById"); err != nil {
		return User{}, err
	}
	if i, ok := m.findUser(id); ok {
		return m.users[i], nil
	}
	return User{}, &NotFoundError{Message: fmt.Sprintf("user %d not found", id)}
}

// CompleteHabit credits the habit's impact points to the user.
func (m *Mock) CompleteHabit(ctx context.Context, userID, habitID int) (CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("completeHabit"); err != nil {
		return CompletionResult{}, err
	}
	i, ok := m.findUser(userID)
	if !ok {
		return CompletionResult{}, &NotFoundError{Message: fmt.Sprintf("user %d not found", userID)}
	}
	points := 0
	for _, h := range m.habits {
		if h.ID == habitID {
			points = h.Impact
		}
	}
	m.users[i].TotalImpactPoints += points
	return CompletionResult{
		User:         m.users[i],
		PointsEarned: points,
		NewTotal:     m.users[i].TotalImpactPoints,
	}, nil
}

// TrackHabit adds the habit to the user's tracked set.
func (m *Mock) TrackHabit(ctx context.Context, userID, habitID int) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("trackHabit"); err != nil {
		return User{}, err
	}
	i, ok := m.findUser(userID)
	if !ok {
		return User{}, &NotFoundError{Message: fmt.Sprintf("user %d not found", userID)}
	}
	if !m.users[i].Tracks(habitID) {
		m.users[i].TrackedHabits = append(m.users[i].TrackedHabits, habitID)
	}
	return m.users[i], nil
}

// UntrackHabit removes the habit from the user's tracked set.
func (m *Mock) UntrackHabit(ctx context.Context, userID, habitID int) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("untrackHabit"); err != nil {
		return User{}, err
	}
	i, ok := m.findUser(userID)
	if !ok {
		return User{}, &NotFoundError{Message: fmt.Sprintf("user %d not found", userID)}
	}
	kept := m.users[i].TrackedHabits[:0]
	for _, id := range m.users[i].TrackedHabits {
		if id != habitID {
			kept = append(kept, id)
		}
	}
	m.users[i].TrackedHabits = kept
	return m.users[i], nil
}

// JoinChallenge increments the challenge's participant count.
func (m *Mock) JoinChallenge(ctx context.Context, userID, challengeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("joinChallenge"); err != nil {
		return err
	}
	for i := range m.challenges {
		if m.challenges[i].ID == challengeID {
			m.challenges[i].Participants++
			return nil
		}
	}
	return &NotFoundError{Message: fmt.Sprintf("challenge %d not found", challengeID)}
}

// LeaveChallenge decrements the challenge's participant count.
func (m *Mock) LeaveChallenge(ctx context.Context, userID, challengeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("leaveChallenge"); err != nil {
		return err
	}
	for i := range m.challenges {
		if m.challenges[i].ID == challengeID {
			if m.challenges[i].Participants > 0 {
				m.challenges[i].Participants--
			}
			return nil
		}
	}
	return &NotFoundError{Message: fmt.Sprintf("challenge %d not found", challengeID)}
}

// UpdateUserProfile applies the given updates to the stored user.
func (m *Mock) UpdateUserProfile(ctx context.Context, userID int, updates ProfileUpdate) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("updateUserProfile"); err != nil {
		return User{}, err
	}
	i, ok := m.findUser(userID)
	if !ok {
		return User{}, &NotFoundError{Message: fmt.Sprintf("user %d not found", userID)}
	}
	if updates.Username != nil {
		m.users[i].Username = *updates.Username
	}
	if updates.Email != nil {
		m.users[i].Email = *updates.Email
	}
	return m.users[i], nil
}

// ValidateSession mirrors Client.ValidateSession against seeded users.
func (m *Mock) ValidateSession(ctx context.Context, userID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("validateSession"); err != nil {
		var notFound *NotFoundError
		var auth *AuthenticationError
		var invalid *ValidationError
		if errors.As(err, &notFound) || errors.As(err, &auth) || errors.As(err, &invalid) {
			return false, nil
		}
		return false, err
	}
	_, ok := m.findUser(userID)
	return ok, nil
}

// HealthCheck reports the mock backend as healthy.
func (m *Mock) HealthCheck(ctx context.Context) (HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("health"); err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus{Status: "ok"}, nil
}
