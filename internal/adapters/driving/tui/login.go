// Package tui renders the interactive progress view shown while a login
// waits for the browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	callback "github.com/custodia-labs/authkit/internal/adapters/driving/oauth"
	"github.com/custodia-labs/authkit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/authkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/authkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/authkit/internal/core/domain"
)

// State is the phase of the login view.
type State int

const (
	// StateWaiting means no redirect has been resolved yet.
	StateWaiting State = iota
	// StateSucceeded means the callback produced a credential.
	StateSucceeded
	// StateFailed means the callback resolved with an error.
	StateFailed
	// StateCancelled means the user abandoned the login.
	StateCancelled
)

// LoginConfig configures a LoginView.
type LoginConfig struct {
	// AuthorizeURL is shown so it can be copied into another browser.
	AuthorizeURL string

	// Results delivers the callback server's resolution.
	Results <-chan callback.Result

	// Open reopens the authorization URL. Nil disables the key.
	Open func() error

	// Deadline is when the login times out. Zero hides the countdown.
	Deadline time.Time

	Styles *styles.Styles
	KeyMap *keymap.KeyMap
}

// LoginView is a Bubbletea model that waits for the callback result.
type LoginView struct {
	cfg     LoginConfig
	styles  *styles.Styles
	keys    *keymap.KeyMap
	spinner spinner.Model
	state   State
	result  callback.Result
	notice  string
	now     func() time.Time
}

// NewLoginView creates the login progress view.
func NewLoginView(cfg LoginConfig) (*LoginView, error) {
	if cfg.Results == nil {
		return nil, ErrMissingResults
	}
	s := cfg.Styles
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := cfg.KeyMap
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &LoginView{
		cfg:     cfg,
		styles:  s,
		keys:    km,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		state:   StateWaiting,
		now:     time.Now,
	}, nil
}

// Init starts the spinner and the wait for a result.
func (v *LoginView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, waitForResult(v.cfg.Results))
}

// Update handles key presses, results and spinner ticks.
func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Cancel):
			v.state = StateCancelled
			return v, tea.Quit
		case key.Matches(msg, v.keys.Open) && v.cfg.Open != nil:
			return v, openBrowser(v.cfg.Open)
		}

	case messages.ResultReceived:
		v.result = msg.Result
		if succeeded(msg.Result) {
			v.state = StateSucceeded
		} else {
			v.state = StateFailed
		}
		return v, tea.Quit

	case messages.BrowserOpened:
		if msg.Err != nil {
			v.notice = v.styles.Warning.Render("Could not open browser: " + msg.Err.Error())
		} else {
			v.notice = v.styles.Muted.Render("Browser opened")
		}

	case spinner.TickMsg:
		if v.state != StateWaiting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}
	return v, nil
}

// View renders the current state.
func (v *LoginView) View() string {
	switch v.state {
	case StateSucceeded:
		return v.styles.Success.Render("Authorization received") + "\n"
	case StateFailed:
		return v.styles.Error.Render("Authorization failed: "+failureText(v.result)) + "\n"
	case StateCancelled:
		return v.styles.Muted.Render("Login cancelled") + "\n"
	}

	var b strings.Builder
	b.WriteString(v.spinner.View())
	b.WriteString(" ")
	b.WriteString(v.styles.Title.Render("Waiting for the browser to complete login"))
	if remaining := v.remaining(); remaining > 0 {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" (%s left)", remaining)))
	}
	b.WriteString("\n\n")
	if v.cfg.AuthorizeURL != "" {
		b.WriteString(v.styles.URL.Render(v.cfg.AuthorizeURL))
		b.WriteString("\n")
	}
	if v.notice != "" {
		b.WriteString(v.notice)
		b.WriteString("\n")
	}
	b.WriteString(v.helpLine())
	b.WriteString("\n")
	return b.String()
}

// State returns the current phase.
func (v *LoginView) State() State {
	return v.state
}

// Result returns the resolution received from the callback server.
func (v *LoginView) Result() callback.Result {
	return v.result
}

func (v *LoginView) remaining() time.Duration {
	if v.cfg.Deadline.IsZero() {
		return 0
	}
	return v.cfg.Deadline.Sub(v.now()).Round(time.Second)
}

func (v *LoginView) helpLine() string {
	bindings := v.keys.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Help().Key == v.keys.Open.Help().Key && v.cfg.Open == nil {
			continue
		}
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, " | "))
}

func waitForResult(results <-chan callback.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			return messages.ResultReceived{Result: callback.Result{Err: ErrResultsClosed}}
		}
		return messages.ResultReceived{Result: res}
	}
}

func openBrowser(open func() error) tea.Cmd {
	return func() tea.Msg {
		return messages.BrowserOpened{Err: open()}
	}
}

func succeeded(res callback.Result) bool {
	return res.Err == nil && res.Outcome != nil && res.Outcome.Status == domain.SessionSucceeded
}

func failureText(res callback.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	if res.Outcome != nil {
		return string(res.Outcome.Status)
	}
	return "no result"
}

// WaitForLogin shows the login view until the callback server publishes a
// result, the user cancels or ctx is done. Cancelling by key returns
// domain.ErrUserCancelled; an expired ctx returns its error.
func WaitForLogin(ctx context.Context, cfg LoginConfig, opts ...tea.ProgramOption) (callback.Result, error) {
	view, err := NewLoginView(cfg)
	if err != nil {
		return callback.Result{}, err
	}

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(view, opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil && (err != nil || view.state == StateWaiting) {
		return callback.Result{}, ctxErr
	}
	if err != nil {
		return callback.Result{}, fmt.Errorf("login view: %w", err)
	}

	v, ok := final.(*LoginView)
	if !ok {
		return callback.Result{}, errors.New("login view: unexpected model")
	}
	switch v.state {
	case StateCancelled:
		return callback.Result{}, domain.ErrUserCancelled
	case StateWaiting:
		return callback.Result{}, errors.New("login view closed before a result arrived")
	}
	return v.result, nil
}
