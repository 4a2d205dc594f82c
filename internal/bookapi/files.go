package bookapi

import (
	"strings"
)

const (
	defaultBookCover    = "default-book-cover.jpg"
	defaultProfilePhoto = "default-profile.jpg"
)

// Files resolves stored file references against the file-serving address.
type Files struct {
	base string
}

// NewFiles returns a resolver rooted at base (the API address when empty).
func NewFiles(base string) Files {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	return Files{base: trimmed}
}

// URL resolves a stored reference.
func (f Files) URL(ref string) string {
	return f.base + "/files/" + strings.TrimLeft(ref, "/")
}

// BookCover resolves a book's cover, falling back to the default artwork.
func (f Files) BookCover(b Book) string {
	if strings.TrimSpace(b.ImageURL) == "" {
		return f.URL(defaultBookCover)
	}
	return f.URL(b.ImageURL)
}

// BookContent resolves a book's content file, or "" when none was uploaded.
func (f Files) BookContent(b Book) string {
	if strings.TrimSpace(b.ContentURL) == "" {
		return ""
	}
	return f.URL(b.ContentURL)
}

// ProfilePhoto resolves a user's photo, falling back to the default avatar.
func (f Files) ProfilePhoto(u User) string {
	if strings.TrimSpace(u.ProfilePhoto) == "" {
		return f.URL(defaultProfilePhoto)
	}
	return f.URL(u.ProfilePhoto)
}
