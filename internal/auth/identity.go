// Package auth supplies the cloud identity used to talk to the remote store.
package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medibook/share-engine/internal/remote"
)

// envToken is the fallback environment variable for the identity token.
const envToken = "MBK_REMOTE_TOKEN"

// Identity is a verified-enough cloud identity: the bearer token presented to
// the remote store and the principal it belongs to.
type Identity struct {
	// Principal is the subject the token was issued to. Used as the zone
	// owner for published record graphs.
	Principal string

	// Token is the raw bearer token
	Token string
}

// Provider yields the current cloud identity. Implementations fail with
// CodeNotAuthenticated when no usable identity exists, so callers can refuse
// to publish before any network round-trip.
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=identity.go Provider
type Provider interface {
	Identity(ctx context.Context) (*Identity, error)
}

// FileProvider reads the identity token from a file, falling back to the
// MBK_REMOTE_TOKEN environment variable. The token's registered claims are
// inspected locally; signature verification belongs to the remote store.
type FileProvider struct {
	tokenFile string
}

// NewFileProvider creates a provider reading from the given token file path.
// An empty path means environment-only.
func NewFileProvider(tokenFile string) *FileProvider {
	return &FileProvider{tokenFile: tokenFile}
}

// Identity returns the current identity or a NotAuthenticated error.
func (p *FileProvider) Identity(_ context.Context) (*Identity, error) {
	raw, err := p.readToken()
	if err != nil {
		return nil, err
	}

	principal, err := inspectToken(raw)
	if err != nil {
		return nil, err
	}

	return &Identity{Principal: principal, Token: raw}, nil
}

func (p *FileProvider) readToken() (string, error) {
	if p.tokenFile != "" {
		data, err := os.ReadFile(filepath.Clean(p.tokenFile))
		if err != nil {
			return "", remote.NewStoreError(remote.CodeNotAuthenticated, err,
				"failed to read token from file %s", p.tokenFile)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", remote.NewStoreError(remote.CodeNotAuthenticated, nil,
				"token file %s is empty", p.tokenFile)
		}
		return token, nil
	}

	if token := os.Getenv(envToken); token != "" {
		return token, nil
	}

	return "", remote.NewStoreError(remote.CodeNotAuthenticated, nil,
		"no identity token configured: set remote.tokenFile or %s", envToken)
}

// inspectToken parses the token without verifying its signature and checks
// the claims that can be checked locally: subject presence and expiry.
func inspectToken(raw string) (string, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return "", remote.NewStoreError(remote.CodeNotAuthenticated, err, "identity token is malformed")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", remote.NewStoreError(remote.CodeNotAuthenticated, err, "identity token has no subject")
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return "", remote.NewStoreError(remote.CodeNotAuthenticated, err, "identity token has a malformed expiry")
	}
	if expiry != nil && expiry.Before(time.Now()) {
		return "", remote.NewStoreError(remote.CodeNotAuthenticated, nil,
			"identity token expired at %s", expiry.Format(time.RFC3339))
	}

	return subject, nil
}

// StaticProvider returns a fixed identity. Used by tests and local development
// against the in-memory store.
type StaticProvider struct {
	principal string
	token     string
}

// NewStaticProvider creates a provider with a fixed principal and token.
func NewStaticProvider(principal, token string) *StaticProvider {
	return &StaticProvider{principal: principal, token: token}
}

// Identity returns the fixed identity.
func (p *StaticProvider) Identity(context.Context) (*Identity, error) {
	if p.principal == "" {
		return nil, remote.NewStoreError(remote.CodeNotAuthenticated, nil, "no principal configured")
	}
	return &Identity{Principal: p.principal, Token: p.token}, nil
}

var _ Provider = (*FileProvider)(nil)
var _ Provider = (*StaticProvider)(nil)

// String implements fmt.Stringer without leaking the token into logs.
func (i *Identity) String() string {
	return fmt.Sprintf("identity(%s)", i.Principal)
}
