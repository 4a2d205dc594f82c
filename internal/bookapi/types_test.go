package bookapi

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAuthResponse_UserAcceptsEitherIDField(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"userId", `{"token":"T","userId":7,"fullName":"A","role":"USER"}`, 7},
		{"id", `{"token":"T","id":1,"fullName":"A","role":"ADMIN"}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp AuthResponse
			if err := json.Unmarshal([]byte(tt.body), &resp); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			user := resp.User()
			if user.ID != tt.want || user.FullName != "A" {
				t.Fatalf("User() = %#v, want id %d", user, tt.want)
			}
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	if !(User{Role: "ADMIN"}).IsAdmin() {
		t.Fatalf("ADMIN role not recognised")
	}
	if (User{Role: RoleUser}).IsAdmin() {
		t.Fatalf("USER role treated as admin")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"garbage", time.Time{}},
		{"2024-03-01T10:20:30Z", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2024-03-01T10:20:30.123456", time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)},
	}
	for _, tt := range tests {
		got := parseTime(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFiles_DefaultsWhenReferenceAbsent(t *testing.T) {
	files := NewFiles("http://host/api/")

	if got := files.BookCover(Book{}); got != "http://host/api/files/default-book-cover.jpg" {
		t.Fatalf("BookCover = %q", got)
	}
	if got := files.BookCover(Book{ImageURL: "covers/a.jpg"}); got != "http://host/api/files/covers/a.jpg" {
		t.Fatalf("BookCover = %q", got)
	}
	if got := files.ProfilePhoto(User{}); got != "http://host/api/files/default-profile.jpg" {
		t.Fatalf("ProfilePhoto = %q", got)
	}
	if got := files.ProfilePhoto(User{ProfilePhoto: "profiles/me.png"}); got != "http://host/api/files/profiles/me.png" {
		t.Fatalf("ProfilePhoto = %q", got)
	}
	if got := files.BookContent(Book{}); got != "" {
		t.Fatalf("BookContent = %q, want empty", got)
	}
}

func TestBook_OwnedBy(t *testing.T) {
	b := Book{OwnerID: 3}
	if !b.OwnedBy(3) || b.OwnedBy(4) {
		t.Fatalf("OwnedBy mismatch")
	}
	if (Book{}).OwnedBy(0) {
		t.Fatalf("unowned book reported as owned by 0")
	}
}
