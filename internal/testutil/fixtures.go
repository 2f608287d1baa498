package testutil

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/val/markdown-notes/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern.
type UserBuilder struct {
	username     string
	email        string
	password     string
	verified     bool
	admin        bool
	code         *string
	codeExpires  *time.Time
	tokenVersion int
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: "testuser",
		email:    fmt.Sprintf("test_%s@example.com", uuid.New().String()[:8]),
		password: "Testpass1",
		verified: true,
	}
}

func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) Unverified() *UserBuilder {
	b.verified = false
	return b
}

func (b *UserBuilder) Admin() *UserBuilder {
	b.admin = true
	return b
}

// WithVerificationCode sets an outstanding code and its expiry.
func (b *UserBuilder) WithVerificationCode(code string, expires time.Time) *UserBuilder {
	b.code = &code
	b.codeExpires = &expires
	return b
}

// Build creates the user in the database and returns it with the raw password.
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Username:         b.username,
		Email:            b.email,
		PasswordHash:     string(hashedPassword),
		IsAdmin:          b.admin,
		IsVerified:       b.verified,
		VerificationCode: b.code,
		CodeExpires:      b.codeExpires,
		TokenVersion:     b.tokenVersion,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// NoteBuilder creates test notes.
type NoteBuilder struct {
	title   string
	content string
	owner   *domain.User
}

func NewNoteBuilder() *NoteBuilder {
	return &NoteBuilder{
		title:   "Test note",
		content: "# Heading\n\nSome markdown content.",
	}
}

func (b *NoteBuilder) WithTitle(title string) *NoteBuilder {
	b.title = title
	return b
}

func (b *NoteBuilder) WithContent(content string) *NoteBuilder {
	b.content = content
	return b
}

func (b *NoteBuilder) WithOwner(user *domain.User) *NoteBuilder {
	b.owner = user
	return b
}

func (b *NoteBuilder) Build(t *testing.T, db *gorm.DB) *domain.Note {
	t.Helper()

	if b.owner == nil {
		t.Fatal("NoteBuilder requires an owner")
	}

	note := &domain.Note{
		Title:   b.title,
		Content: b.content,
		UserID:  b.owner.ID,
	}

	if err := db.Create(note).Error; err != nil {
		t.Fatalf("failed to create note: %v", err)
	}

	return note
}

// Login performs a Basic-auth login against the test server and returns the
// session cookie.
func Login(t *testing.T, ts *TestServer, email, password string) *http.Cookie {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.APIURL("/login"), nil)
	if err != nil {
		t.Fatalf("failed to build login request: %v", err)
	}
	req.SetBasicAuth(email, password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "jwt" {
			return cookie
		}
	}

	t.Fatal("login response did not set the jwt cookie")
	return nil
}
