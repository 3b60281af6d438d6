// Package auth provides bearer-token identity verification and the HTTP
// auth gate in front of protected routes.
//
// The production verifier is backed by the Firebase Admin SDK, initialized
// once at process start from a service-account credential file. Handlers
// read the verified subject id from the request context via UserID.
package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/sakay/genchat/internal/log"
)

// ErrNoCredentials indicates the Firebase credential path is not set.
// This is a fatal startup condition when the auth gate is enabled.
var ErrNoCredentials = errors.New("FIREBASE_CRED_PATH is not set")

// Verifier checks a bearer token against an identity provider and returns
// the subject identifier it was issued to.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

// tokenVerifier is the slice of the Firebase auth client we depend on.
// *fbauth.Client satisfies it; tests substitute a stub.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Config contains the parameters for the Firebase verifier.
type Config struct {
	// CredPath is the path to the service-account JSON file. Required.
	CredPath string

	// ProjectID optionally pins the Firebase project.
	ProjectID string

	Logger log.Logger
}

// FirebaseVerifier verifies ID tokens with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client tokenVerifier
	logger log.Logger
}

// NewFirebaseVerifier initializes the Firebase app from the credential
// file and returns a verifier. Absence of the credential path is fatal.
func NewFirebaseVerifier(ctx context.Context, cfg Config) (*FirebaseVerifier, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	if cfg.CredPath == "" {
		logger.Error("firebase credential path is not set")
		return nil, ErrNoCredentials
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.CredPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth client: %w", err)
	}

	logger.Info("firebase auth initialized", "credential", cfg.CredPath)
	return &FirebaseVerifier{client: client, logger: logger}, nil
}

// Verify checks the ID token and returns its subject (the Firebase UID).
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verifying id token: %w", err)
	}
	return token.UID, nil
}
