package model

import "time"

// User represents a registered account.
//
// Secret holds the credential exactly as the configured secret scheme stores
// it: the raw value under the "plaintext" scheme, a bcrypt hash under
// "bcrypt". It is tagged json:"-" so a User can never leak it by accident;
// handlers return a UserView instead.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Secret      string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// UserView is the public shape of a user: everything except the secret.
// Token is only filled in on login when token issuing is enabled.
type UserView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Token       string     `json:"token,omitempty"`
}

func (u *User) View() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserStats counts the records a user owns, per kind.
type UserStats struct {
	Journals   int `json:"journal_count"`
	Categories int `json:"category_count"`
	Habits     int `json:"habit_count"`
	Todos      int `json:"todo_count"`
}

// UserDetail is the admin view of one account.
type UserDetail struct {
	User  UserView  `json:"user"`
	Stats UserStats `json:"stats"`
}

// Registration is the register input. Password is the account secret in
// the clear; it is sealed by the configured scheme before storage.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials is the login input. The fields are pointers so a missing key
// (a malformed request) can be told apart from an empty value (a failed login).
type Credentials struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
