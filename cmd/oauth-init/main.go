// Command oauth-init runs the OAuth consent flow once and stores the token
// used by expenses-worker.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/cli"
	"expenses/internal/config"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("oauth-init")
	cfg := config.Load()

	clientJSON, err := readClient(cfg)
	if err != nil {
		logger.Error("Missing OAuth client", "error", err)
		os.Exit(1)
	}

	oauthCfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		logger.Error("Invalid OAuth client", "error", err)
		os.Exit(1)
	}

	// The redirect URI must be registered on the OAuth client.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	exchange := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("authorization not completed: %w", ctx.Err())
		case code := <-codeCh:
			tok, err := oauthCfg.Exchange(ctx, code)
			if err != nil {
				return fmt.Errorf("token exchange: %w", err)
			}
			if err := saveToken(cfg.GoogleOAuthTokenFile, tok); err != nil {
				return err
			}
			cancel()
			return nil
		}
	}

	if err := cli.Run(ctx, cli.ServeHTTP(logger.Logger, srv, 2*time.Second), exchange); err != nil {
		logger.Error("OAuth flow failed", "error", err)
		os.Exit(1)
	}
}

func readClient(cfg *config.Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.GoogleOAuthClientJSON); s != "" {
		return []byte(s), nil
	}
	if cfg.GoogleOAuthClientFile == "" {
		return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return os.ReadFile(cfg.GoogleOAuthClientFile)
}

func saveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		path = "token.json"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	fmt.Printf("Saved token to %s\n", path)
	return nil
}
