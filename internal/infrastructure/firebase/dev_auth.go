package firebase

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"pairchat/pkg/errors"
)

// DevAuth is a development stand-in for Firebase Auth. Accounts live in
// memory and tokens are HS256 JWTs signed with a local secret, so the service
// runs end to end without live Firebase credentials. Never use outside
// development.
type DevAuth struct {
	secret []byte

	mu       sync.Mutex
	accounts map[string]devAccount // keyed by email
}

type devAccount struct {
	uid      string
	password string
}

func NewDevAuth(secret string) *DevAuth {
	return &DevAuth{
		secret:   []byte(secret),
		accounts: make(map[string]devAccount),
	}
}

func (d *DevAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.accounts[email]; ok {
		return "", errors.Conflict("email already in use")
	}

	uid := uuid.New().String()
	d.accounts[email] = devAccount{uid: uid, password: password}
	return uid, nil
}

func (d *DevAuth) SignInWithEmailPassword(email, password string) (string, error) {
	d.mu.Lock()
	account, ok := d.accounts[email]
	d.mu.Unlock()

	if !ok || account.password != password {
		return "", errors.Unauthorized("Invalid credentials", nil)
	}

	claims := jwt.MapClaims{
		"sub": account.uid,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(d.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign token", err)
	}
	return signed, nil
}

func (d *DevAuth) VerifyToken(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("Unexpected signing method", nil)
		}
		return d.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.Unauthorized("Invalid token claims", nil)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.Unauthorized("Token has no subject", nil)
	}
	return sub, nil
}

func (d *DevAuth) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	// The dev provider keeps no profile fields; the user repository is the
	// source of truth in development.
	return nil
}
