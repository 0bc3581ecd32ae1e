package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/authkit/internal/adapters/driven/browser"
	"github.com/custodia-labs/authkit/internal/adapters/driven/oauth"
	callback "github.com/custodia-labs/authkit/internal/adapters/driving/oauth"
	"github.com/custodia-labs/authkit/internal/adapters/driving/tui"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/services"
	"github.com/custodia-labs/authkit/internal/logger"
)

// Ports tried for the callback when none is configured. Register
// http://127.0.0.1:<port>/callback for at least one of them with the provider.
const (
	callbackPortStart = 8765
	callbackPortEnd   = 8774
)

var (
	loginNoBrowser  bool
	loginPort       int
	loginScope      string
	loginAudience   string
	loginConnection string
	loginParams     map[string]string
	loginTimeout    time.Duration
)

// newUserAgent creates the user agent that opens the authorization URL.
var newUserAgent = func(out io.Writer, noBrowser bool) driven.UserAgent {
	return browser.New(out, noBrowser)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through the browser",
	Long: `Log in with the OAuth2 Authorization Code flow.

A loopback server is started on 127.0.0.1, the authorization page is opened
in your browser and the credentials returned by the provider are cached in
the configured storage backend.

Examples:
  authkit login
  authkit login --audience https://api.example.com --scope "openid offline_access"
  authkit login --no-browser`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "print the authorization URL instead of opening a browser")
	loginCmd.Flags().IntVar(&loginPort, "port", 0, "callback port (default from configuration)")
	loginCmd.Flags().StringVar(&loginScope, "scope", "", "requested scope (default from configuration)")
	loginCmd.Flags().StringVar(&loginAudience, "audience", "", "API audience (default from configuration)")
	loginCmd.Flags().StringVar(&loginConnection, "connection", "", "identity provider connection")
	loginCmd.Flags().StringToStringVarP(&loginParams, "param", "p", nil, "extra authorization parameter (key=value)")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 0, "how long to wait for the browser (default from configuration)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	env, err := openEnvironment(cmd.Context(), *settings)
	if err != nil {
		return err
	}
	defer env.Close()

	// One login per data directory; a second terminal would race the first
	// for the callback port and the cached credential.
	lock := flock.New(filepath.Join(env.dataDir, "login.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire login lock: %w", err)
	}
	if !locked {
		return errors.New("another login is in progress")
	}
	defer lock.Unlock() //nolint:errcheck // released on exit regardless

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := authorize(ctx, cmd, env)
	if err != nil {
		return err
	}

	if err := env.credentials.Save(cmd.Context(), *outcome.Credential); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	cmd.Println(successStyle.Render("Logged in") + describeIdentity(outcome.Credential))
	return nil
}

// authorize runs one authorization session and returns a successful outcome.
func authorize(ctx context.Context, cmd *cobra.Command, env *environment) (*domain.AuthorizationOutcome, error) {
	settings := env.settings
	agent := newUserAgent(cmd.ErrOrStderr(), loginNoBrowser)
	auth := services.NewAuthorizationService(env.account, env.sessions, env.exchanger, agent)

	// The login lock is held, so stored sessions belong to a login that
	// exited and can never be continued.
	if _, err := auth.DiscardPending(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear stale login sessions: %w", err)
	}

	port, err := callbackPort(settings.Callback.Port)
	if err != nil {
		return nil, err
	}

	var sessionID atomic.Value
	sessionID.Store("")
	server := callback.NewCallbackServer(port, func(ctx context.Context, redirectURI string) (*domain.AuthorizationOutcome, error) {
		return auth.HandleRedirect(ctx, sessionID.Load().(string), redirectURI)
	})
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer server.Stop() //nolint:errcheck // shutdown errors are not actionable

	req, err := domain.NewAuthorizeRequest(server.RedirectURI(), loginOptions(settings)...)
	if err != nil {
		return nil, err
	}

	_, session, err := auth.Begin(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start login: %w", err)
	}
	sessionID.Store(session.ID)

	if err := auth.Launch(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	timeout := settings.Callback.Timeout
	if loginTimeout > 0 {
		timeout = loginTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res callback.Result
	var waitErr error
	if interactive(cmd) {
		deadline, _ := waitCtx.Deadline()
		res, waitErr = tui.WaitForLogin(waitCtx, tui.LoginConfig{
			AuthorizeURL: session.AuthorizeURL,
			Results:      server.Results(),
			Open:         func() error { return agent.Open(ctx, session.AuthorizeURL) },
			Deadline:     deadline,
		}, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.ErrOrStderr()))
	} else {
		cmd.PrintErrln(mutedStyle.Render("Waiting for the browser to complete login..."))
		res, waitErr = server.Wait(waitCtx)
	}
	if waitErr != nil {
		// Cancel loses to a redirect that was already resolved.
		outcome, err := auth.Cancel(context.WithoutCancel(ctx), session.ID)
		if outcome != nil {
			switch outcome.Status {
			case domain.SessionSucceeded:
				if err == nil {
					return outcome, nil
				}
			case domain.SessionFailed:
				return nil, fmt.Errorf("login failed: %w", err)
			}
		}
		if errors.Is(waitErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("login timed out after %s", timeout)
		}
		if errors.Is(waitErr, domain.ErrUserCancelled) || errors.Is(waitErr, context.Canceled) {
			return nil, fmt.Errorf("login cancelled: %w", domain.ErrUserCancelled)
		}
		return nil, waitErr
	}
	if res.Err != nil {
		return nil, fmt.Errorf("login failed: %w", res.Err)
	}
	return res.Outcome, nil
}

// interactive reports whether the progress view can take over the terminal.
var interactive = func(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := cmd.ErrOrStderr().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

// callbackPort picks the flag, the configured port, or the first free
// port of the default range.
func callbackPort(configured int) (int, error) {
	switch {
	case loginPort > 0:
		return loginPort, nil
	case configured > 0:
		return configured, nil
	default:
		return callback.FindAvailablePort(callbackPortStart, callbackPortEnd)
	}
}

// loginOptions merges flags over the configured defaults.
func loginOptions(settings domain.AppSettings) []domain.AuthorizeOption {
	opts := settings.AuthorizeOptions()
	if loginScope != "" {
		opts = append(opts, domain.WithScope(loginScope))
	}
	if loginAudience != "" {
		opts = append(opts, domain.WithAudience(loginAudience))
	}
	if loginConnection != "" {
		opts = append(opts, domain.WithConnection(loginConnection))
	}
	for key, value := range loginParams {
		opts = append(opts, domain.WithParameter(key, value))
	}
	return opts
}

// describeIdentity names the logged-in user from the ID token, if any.
func describeIdentity(cred *domain.Credential) string {
	if cred.IDToken == "" {
		return ""
	}
	claims, err := oauth.ParseIDTokenClaims(cred.IDToken)
	if err != nil {
		logger.Debug("could not read ID token: %v", err)
		return ""
	}
	for _, id := range []string{claims.Email, claims.Name, claims.Subject} {
		if id != "" {
			return " as " + id
		}
	}
	return ""
}
