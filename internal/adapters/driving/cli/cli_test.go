package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/services"
)

// fakeProvider stands in for the token and userinfo endpoints.
type fakeProvider struct {
	mu           sync.Mutex
	cred         domain.Credential
	exchangeErr  error
	profile      *domain.UserProfile
	userInfoErr  error
	lastGrant    domain.CodeGrant
	refreshCalls atomic.Int32
}

func (p *fakeProvider) ExchangeCode(_ context.Context, grant domain.CodeGrant) (*domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastGrant = grant
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	cred := p.cred.Clone()
	return &cred, nil
}

func (p *fakeProvider) ExchangeRefreshToken(_ context.Context, _ string) (*domain.Credential, error) {
	p.refreshCalls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	cred := p.cred.Clone()
	return &cred, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, _ string) (*domain.UserProfile, error) {
	if p.userInfoErr != nil {
		return nil, p.userInfoErr
	}
	return p.profile, nil
}

// redirectingAgent plays the browser: it follows the authorization URL
// straight back to the callback with a code.
type redirectingAgent struct {
	state  func(actual string) string
	silent bool
	opened atomic.Int32
}

func (a *redirectingAgent) Open(_ context.Context, authorizeURL string) error {
	a.opened.Add(1)
	if a.silent {
		return nil
	}
	u, err := url.Parse(authorizeURL)
	if err != nil {
		return err
	}
	q := u.Query()
	state := q.Get("state")
	if a.state != nil {
		state = a.state(state)
	}
	target := q.Get("redirect_uri") + "?code=test-code&state=" + url.QueryEscape(state)
	go func() {
		resp, err := http.Get(target) //nolint:noctx // test helper
		if err == nil {
			resp.Body.Close()
		}
	}()
	return nil
}

type cliFixture struct {
	provider *fakeProvider
	agent    *redirectingAgent
	storage  *memory.CredentialStorage
	config   *memory.ConfigStore
	env      *environment
}

var configuredTenant = map[string]any{
	"tenant.domain":    "tenant.example.com",
	"tenant.client_id": "client-123",
	"storage.backend":  "memory",
}

// setupCLI injects in-memory services and restores globals after the test.
func setupCLI(t *testing.T, config map[string]any) *cliFixture {
	t.Helper()

	f := &cliFixture{
		provider: &fakeProvider{
			cred: domain.NewCredential("", "access-token", "Bearer", "refresh-token", 3600),
		},
		agent:   &redirectingAgent{},
		storage: memory.NewCredentialStorage(),
		config:  memory.NewConfigStore(config),
	}
	f.env = &environment{
		dataDir:     t.TempDir(),
		exchanger:   f.provider,
		userInfo:    f.provider,
		sessions:    memory.NewSessionStore(),
		credentials: services.NewCredentialsManager(f.storage, f.provider),
	}

	origSettings, origOpen, origAgent := settingsService, openEnvironment, newUserAgent
	settingsService = services.NewSettingsService(f.config)
	openEnvironment = func(_ context.Context, settings domain.AppSettings) (*environment, error) {
		account, err := settings.Account()
		if err != nil {
			return nil, err
		}
		f.env.settings = settings
		f.env.account = account
		return f.env, nil
	}
	newUserAgent = func(_ io.Writer, _ bool) driven.UserAgent { return f.agent }

	t.Cleanup(func() {
		settingsService, openEnvironment, newUserAgent = origSettings, origOpen, origAgent
		resetFlags(rootCmd)
	})
	return f
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags clears flag state that cobra keeps between executions.
func resetFlags(cmd *cobra.Command) {
	loginNoBrowser, loginPort, loginTimeout = false, 0, 0
	loginScope, loginAudience, loginConnection, loginParams = "", "", "", nil
	tokenJSON, tokenIDToken, whoamiJSON = false, false, false
	configureDomain, configureClientID, configureClientSecret = "", "", false
	configureStorage, configureScope, configureAudience = "", "", ""
	configurePort, configureRedisAddr = -1, ""
	verbose = false
	_ = mcpServeCmd.Flags().Set("port", "0")

	var visit func(c *cobra.Command)
	visit = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			visit(sub)
		}
	}
	visit(cmd)
}

func requireLoggedIn(t *testing.T, f *cliFixture) {
	t.Helper()
	require.NoError(t, f.env.credentials.Save(context.Background(), f.provider.cred))
}
