package creds

import (
	"context"

	"golang.org/x/oauth2"
	fboauth "golang.org/x/oauth2/facebook"
)

// requiredScopes are the page permissions the sync and reply flows need.
var requiredScopes = []string{
	"pages_manage_posts",
	"pages_manage_engagement",
	"pages_read_engagement",
	"pages_show_list",
}

// OAuthFlow drives the browser-based page token grant for operators who do
// not yet have a credentials file.
type OAuthFlow struct {
	conf *oauth2.Config
}

func NewOAuthFlow(clientID, clientSecret, redirectURL string) *OAuthFlow {
	return &OAuthFlow{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       requiredScopes,
			Endpoint:     fboauth.Endpoint,
		},
	}
}

// AuthURL returns the consent URL the operator opens in a browser.
func (f *OAuthFlow) AuthURL(state string) string {
	return f.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the code pasted back by the operator for an access token.
func (f *OAuthFlow) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
