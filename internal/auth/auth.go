// Package auth issues and checks the bearer tokens of the admin panel and
// of signed-in students.
package auth

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

var (
	// ErrBadPassword is returned when the admin password does not match.
	ErrBadPassword = errors.New("invalid password")
	// ErrInvalidToken is returned for missing, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	issuer     = "ontap"
	defaultTTL = 8 * time.Hour
)

// Claims are the JWT claims carried by every token.
type Claims struct {
	Role  model.UserRole `json:"role"`
	Name  string         `json:"name,omitempty"`
	Class string         `json:"class,omitempty"`
	jwt.RegisteredClaims
}

// Service signs tokens with an HMAC secret and checks the admin password.
type Service struct {
	secret    []byte
	adminHash []byte
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long issued tokens stay valid.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock sets the time source used for issuing and checking tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New hashes adminPassword with bcrypt and returns a Service. An empty
// secret is replaced by a random one, so tokens do not survive a restart.
func New(secret, adminPassword string, opts ...Option) (*Service, error) {
	if adminPassword == "" {
		return nil, errors.New("admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	s := &Service{
		secret:    []byte(secret),
		adminHash: hash,
		ttl:       defaultTTL,
		now:       time.Now,
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		slog.Warn("no JWT secret configured, using a random one")
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AdminLogin checks the admin password and returns an admin token.
func (s *Service) AdminLogin(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	return s.Issue(model.Principal{Subject: "admin", Name: "admin", Role: model.UserRoleAdmin})
}

// Issue signs a token for p.
func (s *Service) Issue(p model.Principal) (string, error) {
	now := s.now()
	claims := &Claims{
		Role:  p.Role,
		Name:  p.Name,
		Class: p.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Parse verifies a token and returns the caller it names.
func (s *Service) Parse(token string) (*model.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != model.UserRoleAdmin && claims.Role != model.UserRoleStudent {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return &model.Principal{
		Subject: claims.Subject,
		Name:    claims.Name,
		Class:   claims.Class,
		Role:    claims.Role,
	}, nil
}

// Middleware rejects requests without a valid bearer token for one of the
// allowed roles and stores the caller in the request context. The admin
// role is always allowed.
func (s *Service) Middleware(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			p, err := s.Parse(token)
			if err != nil {
				slog.Debug("rejected token", "error", err)
				unauthorized(w, r)
				return
			}
			if !permitted(p.Role, allowed) {
				writeError(w, http.StatusForbidden, i18n.T(r.Context(), "Forbidden"))
				return
			}
			next.ServeHTTP(w, r.WithContext(model.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func permitted(role model.UserRole, allowed []model.UserRole) bool {
	if role == model.UserRoleAdmin {
		return true
	}
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="ontap"`)
	writeError(w, http.StatusUnauthorized, i18n.T(r.Context(), "Unauthorized"))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
