package bookapi

import (
	"strings"
	"time"
)

// Timestamps arrive as zone-less ISO-8601 local date-times.
const serverTimestampLayout = "2006-01-02T15:04:05"

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// UserStatus is an account's lifecycle state as reported by the server.
type UserStatus string

const (
	StatusActive UserStatus = "ACTIVE"
	StatusBanned UserStatus = "BANNED"
)

// User mirrors the user record returned by /users/me and the admin endpoints.
type User struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"fullName"`
	Username     string     `json:"username"`
	ProfilePhoto string     `json:"profilePhoto,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status,omitempty"`
	BooksCount   int        `json:"booksCount,omitempty"`
	CreatedAt    string     `json:"createdAt,omitempty"`
	UpdatedAt    string     `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(string(u.Role), string(RoleAdmin))
}

// IsActive reports whether the account is active.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (u User) ParsedCreatedAt() time.Time {
	return parseTime(u.CreatedAt)
}

// AuthResponse is the combined credential + user payload returned by login
// and registration.
type AuthResponse struct {
	Token        string     `json:"token"`
	TokenType    string     `json:"tokenType,omitempty"`
	UserID       int64      `json:"userId,omitempty"`
	ID           int64      `json:"id,omitempty"`
	Username     string     `json:"username"`
	FullName     string     `json:"fullName"`
	ProfilePhoto string     `json:"profilePhoto,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status,omitempty"`
}

// User extracts the user fields from the combined response.
func (a AuthResponse) User() User {
	id := a.UserID
	if id == 0 {
		id = a.ID
	}
	return User{
		ID:           id,
		FullName:     a.FullName,
		Username:     a.Username,
		ProfilePhoto: a.ProfilePhoto,
		Role:         a.Role,
		Status:       a.Status,
	}
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfilePatch is the profile update request body.
type ProfilePatch struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// PasswordChange is the password update request body.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Book mirrors a book record. The server owns IDs and timestamps.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ContentURL  string `json:"contentUrl,omitempty"`
	OwnerID     int64  `json:"ownerId,omitempty"`
	OwnerName   string `json:"ownerName,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// OwnedBy reports whether userID owns the book.
func (b Book) OwnedBy(userID int64) bool {
	return b.OwnerID != 0 && b.OwnerID == userID
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (b Book) ParsedCreatedAt() time.Time {
	return parseTime(b.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (b Book) ParsedUpdatedAt() time.Time {
	return parseTime(b.UpdatedAt)
}

// Page is one server-paginated slice of a collection.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// errorPayload covers the error bodies the server emits.
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, trimFraction(value), time.Local); err == nil {
		return t
	}
	return time.Time{}
}

func trimFraction(value string) string {
	if idx := strings.IndexByte(value, '.'); idx > 0 {
		return value[:idx]
	}
	return value
}
