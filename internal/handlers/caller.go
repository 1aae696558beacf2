package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/notable-app/apiserver/internal/services"
)

const defaultTokenTTL = 24 * time.Hour

type contextKey string

const contextCallerKey contextKey = "caller"

var (
	errOwnerMismatch = errors.New("resource belongs to another user")
	errOwnerRequired = errors.New("userId is required")
	errInvalidOwner  = errors.New("invalid user id")
)

// Caller is the resolved identity of the requester, injected by
// OptionalAuth when a valid bearer token is presented.
type Caller struct {
	UserID int
	Role   string
	Name   string
}

// OptionalAuth resolves a bearer token into a Caller once at the
// boundary. Requests without an Authorization header pass through
// anonymously; a present but invalid token is rejected.
func OptionalAuth(jwtSecret string, userService *services.UserService) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := strconv.Atoi(subject)
			if err != nil || userID < 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			caller := Caller{UserID: user.ID, Role: user.Role, Name: user.Name}
			ctx := context.WithValue(r.Context(), contextCallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(contextCallerKey).(Caller)
	return caller, ok
}

// resolveOwner decides which user a request operates on behalf of: an
// authenticated caller always acts as itself, and naming a different
// user is an ownership violation. An anonymous request must supply the
// id and is trusted, keeping pre-token clients working.
func resolveOwner(r *http.Request, supplied int) (int, error) {
	if caller, ok := CallerFromContext(r.Context()); ok {
		if supplied != 0 && supplied != caller.UserID {
			return 0, errOwnerMismatch
		}
		return caller.UserID, nil
	}
	if supplied < 1 {
		return 0, errOwnerRequired
	}
	return supplied, nil
}

// requireAdmin gates privileged operations on an authenticated admin
// caller.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !strings.EqualFold(caller.Role, "admin") {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
