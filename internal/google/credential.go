// Package google provides thin read-only clients for the Gmail and
// Calendar APIs. Both clients share one OAuth credential and surface
// a distinguishable expired-credential error on auth failures.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// ErrCredentialExpired indicates the stored OAuth token was rejected
// and the user needs to reconnect their Google account.
var ErrCredentialExpired = errors.New("google credential expired, reconnect required")

// ErrNotConnected indicates no Google credential is configured at all.
// Handlers treat this as a skip condition, not a cycle failure.
var ErrNotConnected = errors.New("no google account connected")

// Credential holds the OAuth client configuration and the user token
// loaded from disk.
type Credential struct {
	config *oauth2.Config
	token  *oauth2.Token
}

// LoadCredential reads the OAuth client secret and token files.
// Returns ErrNotConnected if either path is empty or missing.
func LoadCredential(clientSecretPath, tokenPath string) (*Credential, error) {
	if clientSecretPath == "" || tokenPath == "" {
		return nil, ErrNotConnected
	}

	secret, err := os.ReadFile(clientSecretPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("read client secret: %w", err)
	}

	cfg, err := google.ConfigFromJSON(secret,
		gmail.GmailReadonlyScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return &Credential{config: cfg, token: &token}, nil
}

// HTTPClient returns an authenticated HTTP client that refreshes the
// token as needed.
func (c *Credential) HTTPClient(ctx context.Context) *http.Client {
	return c.config.Client(ctx, c.token)
}

// classifyErr maps Google API failures onto the package sentinels.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return errors.Join(ErrCredentialExpired, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return errors.Join(ErrCredentialExpired, err)
	}

	if strings.Contains(err.Error(), "invalid_grant") {
		return errors.Join(ErrCredentialExpired, err)
	}
	return err
}

// IsCredentialExpired reports whether the error is an auth failure.
func IsCredentialExpired(err error) bool {
	return errors.Is(err, ErrCredentialExpired)
}
