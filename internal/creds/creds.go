package creds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ternbury/commentsync/internal/facebook"
)

type PrincipalType string

const (
	PrincipalUser       PrincipalType = "user"
	PrincipalPage       PrincipalType = "page"
	PrincipalSystemUser PrincipalType = "system_user"
)

// Credential is the resolved access token plus what the platform says about
// it. It is resolved once per bulk run and shared read-only afterwards.
type Credential struct {
	Token       string
	PageID      string
	Principal   PrincipalType
	Permissions []string
}

type FailureReason string

const (
	ReasonNotFound     FailureReason = "not_found"
	ReasonMalformed    FailureReason = "malformed"
	ReasonInvalidToken FailureReason = "invalid_token"
)

// CredentialError is never retried: an absent or rejected credential stays
// absent or rejected until an operator fixes it.
type CredentialError struct {
	Reason FailureReason
	Err    error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %s: %v", e.Reason, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// IsCredentialError reports whether err is a credential resolution failure.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// tokenKeys are the candidate top-level keys tried in order. The last entry
// tolerates a known misspelling that shipped in real system-user credential
// files and never got cleaned up.
var tokenKeys = []string{
	"page_token",
	"access_token",
	"system_user_access_token",
	"system_user_access_toke",
}

type credsFile struct {
	PageID string `json:"page_id"`
	Data   []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// Resolve loads the access token from the credentials file at path. The file
// either carries a token under one of the candidate keys, or a Graph-style
// "data" array of page entries. For the array shape, pageID selects the entry
// (empty pageID takes the first).
func Resolve(path, pageID string) (*Credential, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &CredentialError{Reason: ReasonNotFound, Err: err}
		}
		return nil, &CredentialError{Reason: ReasonNotFound, Err: err}
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, &CredentialError{Reason: ReasonMalformed, Err: fmt.Errorf("credentials are not a JSON object: %w", err)}
	}

	var parsed credsFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &CredentialError{Reason: ReasonMalformed, Err: err}
	}

	for _, key := range tokenKeys {
		val, ok := flat[key]
		if !ok {
			continue
		}
		var token string
		if err := json.Unmarshal(val, &token); err != nil {
			return nil, &CredentialError{Reason: ReasonMalformed, Err: fmt.Errorf("key %q is not a string", key)}
		}
		if token == "" {
			continue
		}
		resolvedPage := pageID
		if resolvedPage == "" {
			resolvedPage = parsed.PageID
		}
		return &Credential{Token: token, PageID: resolvedPage}, nil
	}

	for _, app := range parsed.Data {
		if app.AccessToken == "" {
			continue
		}
		if pageID != "" && app.ID != pageID {
			continue
		}
		return &Credential{Token: app.AccessToken, PageID: app.ID}, nil
	}

	return nil, &CredentialError{
		Reason: ReasonMalformed,
		Err:    fmt.Errorf("no token field in %s (tried %v and data[].access_token)", path, tokenKeys),
	}
}

// Classify probes the Graph API to determine what kind of principal the token
// belongs to and which permissions it was granted. A platform rejection of
// the probe means the token itself is invalid.
func Classify(ctx context.Context, fb *facebook.Client, cred *Credential) error {
	prof, err := fb.ValidateToken(ctx, cred.Token)
	if err != nil {
		if facebook.IsRejected(err) {
			return &CredentialError{Reason: ReasonInvalidToken, Err: err}
		}
		return err
	}

	switch {
	case prof.AppType == "system_user":
		cred.Principal = PrincipalSystemUser
	case prof.Category != "":
		cred.Principal = PrincipalPage
		if cred.PageID == "" {
			cred.PageID = prof.ID
		}
	default:
		cred.Principal = PrincipalUser
	}

	perms, err := fb.GetPermissions(ctx, cred.Token)
	if err != nil {
		if facebook.IsRejected(err) {
			return &CredentialError{Reason: ReasonInvalidToken, Err: err}
		}
		return err
	}
	cred.Permissions = perms
	return nil
}

// Save writes a resolved token back to the credentials file under the
// canonical key, preserving the page id.
func Save(path, pageID, token string) error {
	payload := map[string]string{
		"page_id":    pageID,
		"page_token": token,
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
