package api

// User is the client-side projection of a backend user record.
// The canonical copy lives on the backend; the client persists this
// projection wholesale through the session store.
type User struct {
	ID                int    `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	TotalImpactPoints int    `json:"totalImpactPoints"`
	JoinedDate        string `json:"joinedDate"`
	TrackedHabits     []int  `json:"trackedHabits"`
}

// Tracks reports whether the user currently tracks the given habit.
func (u User) Tracks(habitID int) bool {
	for _, id := range u.TrackedHabits {
		if id == habitID {
			return true
		}
	}
	return false
}

// Habit is an eco-friendly habit users can track and complete.
type Habit struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Impact      int    `json:"impact"`
}

// Challenge is a community challenge users can join.
type Challenge struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Duration     string `json:"duration"`
	Participants int    `json:"participants"`
	Reward       int    `json:"reward"`
}

// CompletionResult is returned when a habit is completed.
type CompletionResult struct {
	User         User `json:"user"`
	PointsEarned int  `json:"pointsEarned"`
	NewTotal     int  `json:"newTotal"`
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// HealthStatus is the backend health check response.
type HealthStatus struct {
	Status string `json:"status"`
}

// authResponse wraps login and signup responses.
type authResponse struct {
	User User `json:"user"`
}

// userResponse wraps endpoints that return a single user.
type userResponse struct {
	User User `json:"user"`
}

// errorBody is the backend's error response payload.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
