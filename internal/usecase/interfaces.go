package usecase

import (
	"context"
	"io"
)

// IdentityProvider is the authentication boundary. Implemented by Firebase
// Auth in production and by the local HS256 issuer in development.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(email, password string) (string, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
}

// FileUploader is the blob-storage boundary: bytes and a filename in, a
// publicly fetchable URL out.
type FileUploader interface {
	UploadFile(ctx context.Context, file io.Reader, filename, contentType string) (string, error)
}
