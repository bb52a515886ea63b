// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/ternbury/commentsync/internal/config"
	"github.com/ternbury/commentsync/internal/creds"
	"github.com/ternbury/commentsync/internal/facebook"
)

// HandleSetToken prompts for an access token without echoing it and writes
// it to the configured credentials file.
func HandleSetToken(cfg *config.AppConfig) {
	fmt.Printf("Enter page access token for page '%s': ", cfg.PageID)
	byteToken, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("\nFailed to read token: %v", err)
	}
	fmt.Println()

	token := strings.TrimSpace(string(byteToken))
	if token == "" {
		log.Fatal("Token must not be empty")
	}

	if err := creds.Save(cfg.CredentialsFile, cfg.PageID, token); err != nil {
		log.Fatalf("Failed to write credentials file: %v", err)
	}

	fmt.Println("Token saved successfully.")
}

// HandleValidateToken resolves the stored credential and probes the
// platform for the principal type and granted permissions.
func HandleValidateToken(cfg *config.AppConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	cred, err := creds.Resolve(cfg.CredentialsFile, cfg.PageID)
	if err != nil {
		log.Fatalf("Failed to resolve credentials: %v", err)
	}

	graph := facebook.NewClient(cfg.RequestTimeout, cfg.GraphAPIVersion)
	if err := creds.Classify(ctx, graph, cred); err != nil {
		log.Fatalf("Token validation failed: %v", err)
	}

	fmt.Printf("Token is valid.\n")
	fmt.Printf("  Principal:   %s\n", cred.Principal)
	fmt.Printf("  Page ID:     %s\n", cred.PageID)
	fmt.Printf("  Permissions: %s\n", strings.Join(cred.Permissions, ", "))
}

// HandleGetToken walks the operator through the browser grant flow and
// stores the resulting token.
func HandleGetToken(cfg *config.AppConfig) {
	clientID := os.Getenv("FB_APP_ID")
	clientSecret := os.Getenv("FB_APP_SECRET")
	redirectURL := os.Getenv("FB_REDIRECT_URL")
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		log.Fatal("FB_APP_ID, FB_APP_SECRET and FB_REDIRECT_URL are required")
	}

	flow := creds.NewOAuthFlow(clientID, clientSecret, redirectURL)
	state := fmt.Sprintf("commentsync-%d", time.Now().Unix())

	fmt.Println("Open this URL in a browser and authorize the app:")
	fmt.Println()
	fmt.Println("  " + flow.AuthURL(state))
	fmt.Println()
	fmt.Print("Paste the code from the redirect URL: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read code: %v", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		log.Fatal("Code must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	token, err := flow.Exchange(ctx, code)
	if err != nil {
		log.Fatalf("Token exchange failed: %v", err)
	}

	if err := creds.Save(cfg.CredentialsFile, cfg.PageID, token); err != nil {
		log.Fatalf("Failed to write credentials file: %v", err)
	}

	fmt.Println("Token obtained and saved successfully.")
}
