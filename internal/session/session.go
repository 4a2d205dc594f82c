package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/credential"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/forms"
)

// API is the slice of the gateway the session drives. *bookapi.Client
// implements it; tests substitute fakes.
type API interface {
	Login(ctx context.Context, creds bookapi.Credentials) (*bookapi.AuthResponse, error)
	Register(ctx context.Context, reg bookapi.Registration) (*bookapi.AuthResponse, error)
	CurrentUser(ctx context.Context) (*bookapi.User, error)
	UpdateProfile(ctx context.Context, patch bookapi.ProfilePatch) (*bookapi.User, error)
	UpdatePassword(ctx context.Context, change bookapi.PasswordChange) error
	UploadPhoto(ctx context.Context, photo *bookapi.Attachment) (*bookapi.User, error)
}

var _ API = (*bookapi.Client)(nil)

// Phase is the bootstrap progress of a Manager.
type Phase int

const (
	Bootstrapping Phase = iota
	Ready
)

func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "bootstrapping"
}

// Fallback reasons when the server gives none.
const (
	reasonLogin         = "Login failed"
	reasonRegister      = "Registration failed"
	reasonProfile       = "Failed to update profile"
	reasonPassword      = "Failed to update password"
	reasonPhoto         = "Failed to upload photo"
	reasonPhotoRequired = "Please select a photo to upload"
	reasonNoToken       = "Server response did not include a token"
	reasonSaveToken     = "Could not save credential"
	reasonExpired       = "Session expired, please sign in again"
)

// Snapshot is an immutable view of the session.
type Snapshot struct {
	Phase         Phase
	User          *bookapi.User
	HasCredential bool
	// ExpiresAt is read from the credential when it is a JWT; zero otherwise.
	ExpiresAt time.Time
	// Notice explains the most recent involuntary sign-out.
	Notice string
}

// Authenticated reports whether a validated user is present.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// IsAdmin reports whether the signed-in user is an administrator.
func (s Snapshot) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

// Manager owns the signed-in identity. It is the only writer of the session
// and of the credential outside the gateway's 401 path.
type Manager struct {
	api   API
	creds credential.Store
	log   logrus.FieldLogger

	bootOnce sync.Once

	mu         sync.RWMutex
	phase      Phase
	user       *bookapi.User
	token      string
	notice     string
	generation uint64

	subMu sync.Mutex
	subs  map[*Subscription]struct{}
}

// New returns a Manager in the Bootstrapping phase.
func New(api API, creds credential.Store, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		api:   api,
		creds: creds,
		log:   log.WithField("component", "session"),
		subs:  make(map[*Subscription]struct{}),
	}
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:         m.phase,
		HasCredential: m.token != "",
		ExpiresAt:     tokenExpiry(m.token),
		Notice:        m.notice,
	}
	if m.user != nil {
		dup := *m.user
		snap.User = &dup
	}
	return snap
}

// Bootstrap restores the session from the stored credential. It runs once;
// later calls return the current snapshot without touching the network.
func (m *Manager) Bootstrap(ctx context.Context) Snapshot {
	m.bootOnce.Do(func() {
		m.bootstrap(ctx)
	})
	return m.Snapshot()
}

func (m *Manager) bootstrap(ctx context.Context) {
	token, ok := m.creds.Get()
	if !ok {
		m.log.Debug("no stored credential")
		m.commit(func() { m.phase = Ready })
		return
	}

	m.mu.Lock()
	m.token = token
	gen := m.generation
	m.mu.Unlock()

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.log.WithError(err).Info("stored credential rejected")
		if clearErr := m.creds.Clear(); clearErr != nil {
			m.log.WithError(clearErr).Error("clear stored credential")
		}
		m.commit(func() {
			m.user = nil
			m.token = ""
			m.generation++
			m.phase = Ready
		})
		return
	}

	m.commit(func() {
		if m.generation == gen {
			m.user = user
		}
		m.phase = Ready
	})
	m.log.WithField("user", user.Username).Info("session restored")
}

// Login authenticates and persists the issued credential.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if err := forms.Check(&forms.LoginForm{Username: username, Password: password}); err != nil {
		return err
	}
	resp, err := m.api.Login(ctx, bookapi.Credentials{Username: strings.TrimSpace(username), Password: password})
	if err != nil {
		m.log.WithError(err).Warn("login failed")
		return failure.From(err, reasonLogin)
	}
	return m.establish(resp, "login")
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, fullName, username, password string) error {
	form := forms.RegisterForm{FullName: strings.TrimSpace(fullName), Username: strings.TrimSpace(username), Password: password}
	if err := forms.Check(&form); err != nil {
		return err
	}
	resp, err := m.api.Register(ctx, bookapi.Registration{FullName: form.FullName, Username: form.Username, Password: password})
	if err != nil {
		m.log.WithError(err).Warn("registration failed")
		return failure.From(err, reasonRegister)
	}
	return m.establish(resp, "register")
}

// establish installs the credential and user from a combined auth response.
func (m *Manager) establish(resp *bookapi.AuthResponse, op string) error {
	if resp == nil || strings.TrimSpace(resp.Token) == "" {
		return &failure.Failure{Kind: failure.Rejected, Reason: reasonNoToken}
	}
	if err := m.creds.Put(resp.Token); err != nil {
		m.log.WithError(err).Error("persist credential")
		return &failure.Failure{Kind: failure.Transport, Reason: reasonSaveToken, Err: err}
	}
	user := resp.User()
	m.commit(func() {
		m.token = resp.Token
		m.user = &user
		m.notice = ""
		m.generation++
		m.phase = Ready
	})
	m.log.WithFields(logrus.Fields{"op": op, "user": user.Username, "role": user.Role}).Info("signed in")
	return nil
}

// Logout drops the user and credential. It never fails and makes no request.
func (m *Manager) Logout() {
	m.signOut("")
	m.log.Info("signed out")
}

// Expire is the 401 path: same as Logout but leaves a notice for the UI when
// a credential was in use. A 401 on an anonymous call, such as a rejected
// login, leaves no notice.
func (m *Manager) Expire() {
	m.mu.RLock()
	held := m.token != "" || m.user != nil
	m.mu.RUnlock()
	if !held {
		m.signOut("")
		m.log.Debug("unauthorized without a session")
		return
	}
	m.signOut(reasonExpired)
	m.log.Warn("session expired")
}

func (m *Manager) signOut(notice string) {
	if err := m.creds.Clear(); err != nil {
		m.log.WithError(err).Error("clear credential")
	}
	m.commit(func() {
		m.user = nil
		m.token = ""
		m.notice = notice
		m.generation++
	})
}

// UpdateProfile sends the patch and replaces the user with the server's record.
func (m *Manager) UpdateProfile(ctx context.Context, patch bookapi.ProfilePatch) error {
	patch.FullName = strings.TrimSpace(patch.FullName)
	patch.Username = strings.TrimSpace(patch.Username)
	if err := forms.Check(&forms.ProfileForm{FullName: patch.FullName, Username: patch.Username}); err != nil {
		return err
	}
	gen := m.currentGeneration()
	user, err := m.api.UpdateProfile(ctx, patch)
	if err != nil {
		m.log.WithError(err).Warn("profile update failed")
		return failure.From(err, reasonProfile)
	}
	m.replaceUser(gen, user)
	return nil
}

// UploadPhoto sends a new profile photo and replaces the user with the
// server's record.
func (m *Manager) UploadPhoto(ctx context.Context, photo *bookapi.Attachment) error {
	if photo == nil || len(photo.Data) == 0 {
		return failure.Invalid(reasonPhotoRequired)
	}
	gen := m.currentGeneration()
	user, err := m.api.UploadPhoto(ctx, photo)
	if err != nil {
		m.log.WithError(err).Warn("photo upload failed")
		return failure.From(err, reasonPhoto)
	}
	m.replaceUser(gen, user)
	return nil
}

// UpdatePassword changes the password. The user record is not touched.
func (m *Manager) UpdatePassword(ctx context.Context, current, next, confirm string) error {
	if err := forms.Check(&forms.PasswordForm{Current: current, New: next, Confirm: confirm}); err != nil {
		return err
	}
	if err := m.api.UpdatePassword(ctx, bookapi.PasswordChange{CurrentPassword: current, NewPassword: next}); err != nil {
		m.log.WithError(err).Warn("password update failed")
		return failure.From(err, reasonPassword)
	}
	m.log.Info("password updated")
	return nil
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// replaceUser swaps in the server's record unless the session changed while
// the request was in flight.
func (m *Manager) replaceUser(gen uint64, user *bookapi.User) {
	if user == nil {
		return
	}
	applied := false
	m.commit(func() {
		if m.generation != gen || m.user == nil {
			return
		}
		dup := *user
		m.user = &dup
		applied = true
	})
	if !applied {
		m.log.Debug("discarded user update for a replaced session")
	}
}

// commit applies fn under the write lock and notifies subscribers.
func (m *Manager) commit(fn func()) {
	m.mu.Lock()
	fn()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)
}

func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Describe renders a one-line summary of the snapshot for status bars.
func Describe(s Snapshot) string {
	if s.Phase == Bootstrapping {
		return "restoring session"
	}
	if s.User == nil {
		return "signed out"
	}
	out := fmt.Sprintf("%s <%s>", s.User.FullName, s.User.Username)
	if s.IsAdmin() {
		out += " [admin]"
	}
	if !s.ExpiresAt.IsZero() {
		out += " until " + s.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	return out
}
