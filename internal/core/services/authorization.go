package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
	"github.com/custodia-labs/authkit/internal/logger"
)

// Ensure AuthorizationService implements the interface.
var _ driving.AuthorizationService = (*AuthorizationService)(nil)

// DefaultSessionTTL is how long a launched session blocks new launches.
const DefaultSessionTTL = 15 * time.Minute

// resolution is the memoised terminal result of a session.
type resolution struct {
	outcome *domain.AuthorizationOutcome
	err     error
}

// AuthorizationService runs the authorization code flow for one account.
type AuthorizationService struct {
	account   domain.Account
	sessions  driven.SessionStore
	exchanger driven.TokenExchanger
	agent     driven.UserAgent
	now       func() time.Time
	ttl       time.Duration

	// mu guards session transitions and resolved.
	mu       sync.Mutex
	resolved map[string]resolution
	flights  singleflight.Group
}

// AuthorizationOption configures an AuthorizationService.
type AuthorizationOption func(*AuthorizationService)

// WithSessionTTL sets how long a launched session is considered in progress.
func WithSessionTTL(ttl time.Duration) AuthorizationOption {
	return func(s *AuthorizationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionClock overrides the time source.
func WithSessionClock(now func() time.Time) AuthorizationOption {
	return func(s *AuthorizationService) {
		s.now = now
	}
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(
	account domain.Account,
	sessions driven.SessionStore,
	exchanger driven.TokenExchanger,
	agent driven.UserAgent,
	opts ...AuthorizationOption,
) *AuthorizationService {
	s := &AuthorizationService{
		account:   account,
		sessions:  sessions,
		exchanger: exchanger,
		agent:     agent,
		now:       time.Now,
		ttl:       DefaultSessionTTL,
		resolved:  make(map[string]resolution),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin creates a session and returns the authorization URL to open.
func (s *AuthorizationService) Begin(
	ctx context.Context,
	req domain.AuthorizeRequest,
) (string, *domain.AuthorizationSession, error) {
	state, err := generateState()
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	session := domain.AuthorizationSession{
		ID:          uuid.New().String(),
		State:       state,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		Audience:    req.Audience,
		Connection:  req.Connection,
		Status:      domain.SessionCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Confidential clients authenticate with their secret at the token endpoint.
	if req.UsePKCE && !s.account.IsConfidential() {
		pkce, err := GeneratePKCE()
		if err != nil {
			return "", nil, err
		}
		session.CodeVerifier = pkce.Verifier
		session.CodeChallenge = pkce.Challenge
	}

	session.AuthorizeURL = s.authorizeURL(session, req.Extra)

	if err := s.sessions.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	logger.Debug("authorization session %s created (pkce: %t)", session.ID, session.UsesPKCE())
	return session.AuthorizeURL, &session, nil
}

// authorizeURL builds the provider authorization URL for a session.
func (s *AuthorizationService) authorizeURL(session domain.AuthorizationSession, extra map[string]string) string {
	config := &oauth2.Config{
		ClientID:    s.account.ClientID(),
		RedirectURL: session.RedirectURI,
		Scopes:      strings.Fields(session.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.account.AuthorizeURL(),
			TokenURL: s.account.TokenURL(),
		},
	}

	var opts []oauth2.AuthCodeOption
	if session.UsesPKCE() {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", session.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	if session.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", session.Audience))
	}
	if session.Connection != "" {
		opts = append(opts, oauth2.SetAuthURLParam("connection", session.Connection))
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		opts = append(opts, oauth2.SetAuthURLParam(key, extra[key]))
	}

	return config.AuthCodeURL(session.State, opts...)
}

// Launch opens the authorization URL in the external user agent.
// The launched flag is persisted before the agent starts so that a
// recreated host never opens the browser twice for one session.
func (s *AuthorizationService) Launch(ctx context.Context, sessionID string) error {
	session, err := s.markLaunched(ctx, sessionID)
	if err != nil || session == nil {
		return err
	}

	logger.Debug("opening user agent for session %s", sessionID)
	if err := s.agent.Open(ctx, session.AuthorizeURL); err != nil {
		launchErr := fmt.Errorf("launch user agent: %w", err)
		s.mu.Lock()
		s.finishLocked(ctx, *session, resolution{
			outcome: &domain.AuthorizationOutcome{SessionID: sessionID, Status: domain.SessionFailed},
			err:     launchErr,
		})
		s.mu.Unlock()
		return launchErr
	}
	return nil
}

// markLaunched transitions a Created session to Launched. It returns a nil
// session when the session was already launched.
func (s *AuthorizationService) markLaunched(ctx context.Context, sessionID string) (*domain.AuthorizationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resolved[sessionID]; ok {
		return nil, domain.ErrSessionResolved
	}
	session, err := s.loadLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, domain.ErrSessionResolved
	}
	if session.Launched {
		logger.Debug("session %s already launched, not reopening", sessionID)
		return nil, nil
	}

	if err := s.checkNoneInProgressLocked(ctx, sessionID); err != nil {
		return nil, err
	}

	session.Launched = true
	session.Status = domain.SessionLaunched
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// checkNoneInProgressLocked fails if another launched session is unresolved.
// Sessions untouched for longer than the TTL are abandoned and removed,
// whether they were launched or not.
func (s *AuthorizationService) checkNoneInProgressLocked(ctx context.Context, sessionID string) error {
	others, err := s.sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	cutoff := s.now().Add(-s.ttl)
	inProgress := false
	for _, other := range others {
		if other.ID == sessionID {
			continue
		}
		if other.Status.IsTerminal() || other.UpdatedAt.Before(cutoff) {
			s.removeLocked(ctx, other.ID, "abandoned")
			continue
		}
		if other.Launched {
			inProgress = true
		}
	}
	if inProgress {
		return domain.ErrAuthorizationInProgress
	}
	return nil
}

// DiscardPending removes every stored session this service has not
// resolved and returns how many were removed. Hosts call it when they
// know no other process can still be waiting on those sessions, such as
// after restarting without a way to continue them.
func (s *AuthorizationService) DiscardPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	removed := 0
	for _, session := range sessions {
		if _, ok := s.resolved[session.ID]; ok {
			continue
		}
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return removed, fmt.Errorf("delete session %s: %w", session.ID, err)
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("discarded %d pending authorization sessions", removed)
	}
	return removed, nil
}

func (s *AuthorizationService) removeLocked(ctx context.Context, sessionID, reason string) {
	logger.Debug("removing %s session %s", reason, sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Warn("failed to remove %s session %s: %v", reason, sessionID, err)
	}
}

// Resume returns a previously created session.
func (s *AuthorizationService) Resume(ctx context.Context, sessionID string) (*domain.AuthorizationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resolved[sessionID]; ok {
		return nil, domain.ErrSessionResolved
	}
	return s.loadLocked(ctx, sessionID)
}

// HandleRedirect resolves the session from the redirect URI.
func (s *AuthorizationService) HandleRedirect(
	ctx context.Context,
	sessionID, redirectURI string,
) (*domain.AuthorizationOutcome, error) {
	return s.deliver(ctx, sessionID, func(ctx context.Context, session domain.AuthorizationSession) resolution {
		return s.resolveRedirect(ctx, session, redirectURI)
	})
}

// Cancel resolves a launched session as cancelled by the user.
// A session that is already resolved keeps its outcome.
func (s *AuthorizationService) Cancel(ctx context.Context, sessionID string) (*domain.AuthorizationOutcome, error) {
	return s.deliver(ctx, sessionID, func(_ context.Context, session domain.AuthorizationSession) resolution {
		logger.Debug("session %s cancelled", session.ID)
		return resolution{
			outcome: &domain.AuthorizationOutcome{SessionID: session.ID, Status: domain.SessionCancelled},
			err:     &domain.FlowError{Kind: domain.ErrUserCancelled},
		}
	})
}

// deliver runs resolve at most once per session. Concurrent deliveries
// join the running one; later deliveries receive the memoised result.
func (s *AuthorizationService) deliver(
	ctx context.Context,
	sessionID string,
	resolve func(context.Context, domain.AuthorizationSession) resolution,
) (*domain.AuthorizationOutcome, error) {
	if res, ok := s.lookupResolved(sessionID); ok {
		logger.Debug("session %s already resolved, ignoring delivery", sessionID)
		return res.outcome, res.err
	}

	ch := s.flights.DoChan(sessionID, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)

		s.mu.Lock()
		if res, ok := s.resolved[sessionID]; ok {
			s.mu.Unlock()
			return res, nil
		}
		session, err := s.loadLocked(flightCtx, sessionID)
		switch {
		case err != nil:
		case session.Status.IsTerminal():
			err = domain.ErrSessionResolved
		case !session.Launched:
			err = domain.ErrSessionNotLaunched
		}
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}

		res := resolve(flightCtx, *session)

		s.mu.Lock()
		defer s.mu.Unlock()
		return s.finishLocked(flightCtx, *session, res), nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := r.Val.(resolution)
		return res.outcome, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveRedirect validates the redirect and exchanges the code.
// The state is checked first; a mismatched redirect is never trusted
// for anything else.
func (s *AuthorizationService) resolveRedirect(
	ctx context.Context,
	session domain.AuthorizationSession,
	redirectURI string,
) resolution {
	params := ParseRedirectURI(redirectURI)

	failed := func(err error) resolution {
		logger.Debug("session %s failed: %v", session.ID, err)
		return resolution{
			outcome: &domain.AuthorizationOutcome{SessionID: session.ID, Status: domain.SessionFailed},
			err:     err,
		}
	}

	if subtle.ConstantTimeCompare([]byte(params["state"]), []byte(session.State)) != 1 {
		return failed(&domain.FlowError{Kind: domain.ErrStateMismatch})
	}
	if code := params["error"]; code != "" {
		return failed(&domain.FlowError{
			Kind:        domain.ErrProviderDenied,
			Code:        code,
			Description: params["error_description"],
		})
	}
	code := params["code"]
	if code == "" {
		return failed(&domain.FlowError{Kind: domain.ErrMissingAuthorizationCode})
	}

	cred, err := s.exchanger.ExchangeCode(ctx, domain.CodeGrant{
		Code:         code,
		RedirectURI:  session.RedirectURI,
		CodeVerifier: session.CodeVerifier,
	})
	if err != nil {
		return failed(&domain.FlowError{Kind: domain.ErrExchangeFailed, Err: err})
	}

	logger.Debug("session %s succeeded", session.ID)
	return resolution{
		outcome: &domain.AuthorizationOutcome{
			SessionID:  session.ID,
			Status:     domain.SessionSucceeded,
			Credential: cred,
		},
	}
}

// finishLocked records the first resolution of a session and removes it
// from the store. A session that is already resolved keeps its result.
func (s *AuthorizationService) finishLocked(
	ctx context.Context,
	session domain.AuthorizationSession,
	res resolution,
) resolution {
	if prior, ok := s.resolved[session.ID]; ok {
		return prior
	}
	s.resolved[session.ID] = res
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		logger.Warn("failed to remove resolved session %s: %v", session.ID, err)
	}
	return res
}

func (s *AuthorizationService) lookupResolved(sessionID string) (resolution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resolved[sessionID]
	return res, ok
}

func (s *AuthorizationService) loadLocked(ctx context.Context, sessionID string) (*domain.AuthorizationSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}
