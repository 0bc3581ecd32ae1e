// Package oauth provides the loopback server that receives the
// authorization redirect.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/logger"
)

// CallbackPath is the path the provider redirects to.
const CallbackPath = "/callback"

// Default callback rate limit. A browser delivers one redirect; anything
// beyond a small burst is noise or an attack.
const (
	defaultRateLimit = rate.Limit(2)
	defaultBurst     = 5
)

// defaultHandlerTimeout bounds one redirect resolution, including the code
// exchange. It does not depend on the browser keeping the request open.
const defaultHandlerTimeout = 55 * time.Second

// RedirectHandler resolves an authorization session from a redirect URI.
// It is normally AuthorizationService.HandleRedirect bound to a session ID.
type RedirectHandler func(ctx context.Context, redirectURI string) (*domain.AuthorizationOutcome, error)

// Result is the resolution delivered through the callback.
type Result struct {
	Outcome *domain.AuthorizationOutcome
	Err     error
}

// CallbackServer receives the authorization redirect on 127.0.0.1.
// The first request that resolves the session is published on Results;
// later requests are answered but not published.
type CallbackServer struct {
	mu             sync.Mutex
	port           int
	handler        RedirectHandler
	handlerTimeout time.Duration
	limiter        *rate.Limiter
	results        chan Result
	publish        sync.Once
	server         *http.Server
	listener       net.Listener
}

// CallbackOption configures a CallbackServer.
type CallbackOption func(*CallbackServer)

// WithRateLimit sets the callback request rate limit.
func WithRateLimit(limit rate.Limit, burst int) CallbackOption {
	return func(s *CallbackServer) {
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithHandlerTimeout bounds how long one redirect may take to resolve.
func WithHandlerTimeout(timeout time.Duration) CallbackOption {
	return func(s *CallbackServer) {
		if timeout > 0 {
			s.handlerTimeout = timeout
		}
	}
}

// NewCallbackServer creates a callback server. Port 0 picks a free port.
func NewCallbackServer(port int, handler RedirectHandler, opts ...CallbackOption) *CallbackServer {
	s := &CallbackServer{
		port:           port,
		handler:        handler,
		handlerTimeout: defaultHandlerTimeout,
		limiter:        rate.NewLimiter(defaultRateLimit, defaultBurst),
		results:        make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the callback server on the configured port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("callback server stopped: %v", err)
		}
	}()

	logger.Debug("callback server listening on %s", s.redirectURILocked())
	return nil
}

// handleCallback passes the redirect to the handler and renders the result.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	redirectURI := fmt.Sprintf("http://%s%s", r.Host, r.URL.RequestURI())
	// The resolution outlives the request: a browser that drops the
	// connection mid-exchange must not lose the outcome.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.handlerTimeout)
	defer cancel()
	outcome, err := s.handler(ctx, redirectURI)

	// Only a resolution is published; stray requests are answered and ignored.
	if outcome != nil {
		s.publish.Do(func() {
			s.results <- Result{Outcome: outcome, Err: err}
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch {
	case err == nil && outcome != nil && outcome.Status == domain.SessionSucceeded:
		_, _ = fmt.Fprint(w, resultHTML("Login successful", "You can close this window and return to the terminal."))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, resultHTML("Login failed", failureMessage(err)))
	}
}

// Results delivers the first resolution received by the server.
func (s *CallbackServer) Results() <-chan Result {
	return s.results
}

// Wait blocks until a resolution arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-s.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirectURILocked()
}

// redirectURILocked is RedirectURI for callers holding mu.
func (s *CallbackServer) redirectURILocked() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", s.port, CallbackPath)
}

// failureMessage describes err for the browser without leaking internals.
func failureMessage(err error) string {
	var flowErr *domain.FlowError
	switch {
	case err == nil:
		return "The authorization response could not be processed."
	case errors.As(err, &flowErr) && errors.Is(err, domain.ErrProviderDenied):
		if flowErr.Description != "" {
			return flowErr.Description
		}
		return flowErr.Code
	case errors.Is(err, domain.ErrStateMismatch):
		return "The response did not match the login request. Please try again."
	case errors.Is(err, domain.ErrMissingAuthorizationCode):
		return "No authorization code was received."
	case errors.Is(err, domain.ErrExchangeFailed):
		return "The authorization code could not be exchanged for tokens."
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionResolved):
		return "This login request is no longer active."
	default:
		return "Something went wrong. Check the terminal for details."
	}
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>authkit - %[1]s</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
        }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}
