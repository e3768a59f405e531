package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/cache"
	idgen "github.com/tallink-tennis/fuss-tracker/internal/platform/id"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// Credentials are the shared role logins.
type Credentials struct {
	AdminUser        string
	AdminPassword    string
	CoachUser        string
	CoachPassword    string
	CoachAltPassword string
}

func DefaultCredentials() Credentials {
	return Credentials{
		AdminUser:        "admin",
		AdminPassword:    "TallinkAdmin",
		CoachUser:        "coach",
		CoachPassword:    "TallinkCoach",
		CoachAltPassword: "TallinkTreener",
	}
}

// LoginResult is an issued session token.
type LoginResult struct {
	Token   string
	Session auth.Session
}

type AuthService struct {
	store    *mirror.Store
	sessions *cache.Store
	idGen    idgen.Generator
	creds    Credentials
	logger   *logging.Logger
}

func NewAuthService(store *mirror.Store, sessions *cache.Store, idGen idgen.Generator, creds Credentials, logger *logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthService{
		store:    store,
		sessions: sessions,
		idGen:    idGen,
		creds:    creds,
		logger:   logger,
	}
}

// Login checks the admin and coach logins, then player passwords, then
// parent passwords.
func (s *AuthService) Login(ctx context.Context, name, password string) (LoginResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Login")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: name and password are required", ErrInvalidInput)
	}

	state := s.store.State()
	var sess auth.Session
	switch {
	case strings.EqualFold(name, s.creds.AdminUser) && secretEqual(password, s.creds.AdminPassword):
		sess = auth.Admin{}
	case strings.EqualFold(name, s.creds.CoachUser) && s.coachPassword(password):
		sess = auth.Coach{}
	default:
		if stored, ok := state.Password(name); ok && secretEqual(password, stored) {
			sess = auth.Player{Name: name}
		} else if stored, ok := state.ParentPassword(name); ok && secretEqual(password, stored) {
			sess = auth.Parent{Name: name}
		}
	}
	if sess == nil {
		s.logger.InfoContext(ctx, "login rejected", "name", name)
		return LoginResult{}, fmt.Errorf("%w: unknown name or password", ErrUnauthorized)
	}
	return s.issue(ctx, sess)
}

// ParentLogin only accepts parent passwords.
func (s *AuthService) ParentLogin(ctx context.Context, name, password string) (LoginResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.ParentLogin")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: name and parent password are required", ErrInvalidInput)
	}
	stored, ok := s.store.State().ParentPassword(name)
	if !ok || !secretEqual(password, stored) {
		return LoginResult{}, fmt.Errorf("%w: unknown name or parent password", ErrUnauthorized)
	}
	return s.issue(ctx, auth.Parent{Name: name})
}

// CoachLogin accepts either coach password without a name.
func (s *AuthService) CoachLogin(ctx context.Context, password string) (LoginResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.CoachLogin")
	defer span.End()

	if password == "" {
		return LoginResult{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if !s.coachPassword(password) {
		return LoginResult{}, fmt.Errorf("%w: wrong coach password", ErrUnauthorized)
	}
	return s.issue(ctx, auth.Coach{})
}

// Resolve returns the session behind token and extends its lifetime.
// Unknown or expired tokens resolve to LoggedOut.
func (s *AuthService) Resolve(ctx context.Context, token string) auth.Session {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.LoggedOut{}
	}
	v, ok := s.sessions.Get(ctx, sessionKey(token))
	if !ok {
		return auth.LoggedOut{}
	}
	sess, ok := v.(auth.Session)
	if !ok {
		return auth.LoggedOut{}
	}

	// A player archived after login loses access.
	if name, scoped := auth.Subject(sess); scoped {
		if _, active := s.store.State().Password(name); !active {
			s.sessions.Delete(ctx, sessionKey(token))
			return auth.LoggedOut{}
		}
	}
	s.sessions.Touch(ctx, sessionKey(token))
	return sess
}

func (s *AuthService) Logout(ctx context.Context, token string) {
	s.sessions.Delete(ctx, sessionKey(strings.TrimSpace(token)))
}

// ChangePassword sets a player's login password.
func (s *AuthService) ChangePassword(ctx context.Context, sess auth.Session, player, password string) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.ChangePassword")
	defer span.End()

	player, err := s.checkPasswordChange(sess, player, password)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "player password changed", "player", player, "by", string(sess.Role()))
	return s.store.SetPassword(ctx, player, password), nil
}

// ChangeParentPassword sets the parent login of a player.
func (s *AuthService) ChangeParentPassword(ctx context.Context, sess auth.Session, player, password string) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.ChangeParentPassword")
	defer span.End()

	player, err := s.checkPasswordChange(sess, player, password)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "parent password changed", "player", player, "by", string(sess.Role()))
	return s.store.SetParentPassword(ctx, player, password), nil
}

func (s *AuthService) checkPasswordChange(sess auth.Session, player, password string) (string, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return "", fmt.Errorf("%w: player is required", ErrInvalidInput)
	}
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	if !auth.CanActFor(sess, player) {
		return "", fmt.Errorf("%w: cannot change password of %s", ErrForbidden, player)
	}
	if _, ok := s.store.State().Password(player); !ok {
		return "", fmt.Errorf("%w: player %s", ErrNotFound, player)
	}
	return player, nil
}

func (s *AuthService) issue(ctx context.Context, sess auth.Session) (LoginResult, error) {
	token, err := s.idGen.NewID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session token: %w", err)
	}
	s.sessions.Set(ctx, sessionKey(token), sess)
	s.logger.InfoContext(ctx, "session started", "role", string(sess.Role()))
	return LoginResult{Token: token, Session: sess}, nil
}

func (s *AuthService) coachPassword(password string) bool {
	if secretEqual(password, s.creds.CoachPassword) {
		return true
	}
	return s.creds.CoachAltPassword != "" && secretEqual(password, s.creds.CoachAltPassword)
}

func sessionKey(token string) string {
	return "session:" + token
}

func secretEqual(given, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}
