package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

const (
	callbackHost    = "127.0.0.1"
	callbackPath    = "/oauth2callback"
	shutdownTimeout = 5 * time.Second
)

// ErrNotInteractive is returned when a browser sign-in is needed but stdin
// is not a terminal.
var ErrNotInteractive = errors.New("authorization required but stdin is not a terminal; run `calnav auth` interactively first")

// Hooks swapped in tests.
var (
	isInteractive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	browserOpener = openBrowser
)

// Client returns an authenticated HTTP client for the Calendar API. A saved
// token is used when present; otherwise the browser flow runs and the new
// token is saved. Refreshed tokens are written back to store.
func Client(ctx context.Context, config *oauth2.Config, store TokenStore, callbackPort int) (*http.Client, error) {
	tok, err := store.Load()
	if err != nil {
		if !errors.Is(err, ErrTokenNotFound) {
			slog.Warn("saved token unusable, starting authorization", "error", err)
		}

		tok, err = TokenFromWeb(ctx, config, callbackPort)
		if err != nil {
			return nil, fmt.Errorf("unable to get token from web: %w", err)
		}

		if err := store.Save(tok); err != nil {
			return nil, fmt.Errorf("unable to save token: %w", err)
		}
	}

	ts := newSavingTokenSource(config.TokenSource(ctx, tok), store, tok)
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts)), nil
}

// TokenFromWeb runs the installed-app flow: it listens on a loopback port
// (0 picks a free one), sends the user to the consent page, and exchanges
// the returned code.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, port int) (*oauth2.Token, error) {
	if !isInteractive() {
		return nil, ErrNotInteractive
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(callbackHost, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to start local server: %w", err)
	}

	flowConfig := *config
	flowConfig.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("state"); got != state {
			http.Error(w, "Error: state mismatch", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("state mismatch in authorization callback"))
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Error: "+e, http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("authorization denied: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Error: No authorization code received", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("no authorization code received"))
			return
		}

		select {
		case codeCh <- code:
		default:
		}
		fmt.Fprintf(w, "Authorization successful! You can close this window and return to the terminal.")
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errCh, fmt.Errorf("local server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := flowConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)

	slog.Info("opening browser for authorization")
	slog.Info("if the browser doesn't open automatically, visit this URL", "url", authURL)
	if err := browserOpener(authURL); err != nil {
		slog.Warn("failed to open browser automatically", "error", err)
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := flowConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
	}

	return tok, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// openBrowser opens the specified URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}
