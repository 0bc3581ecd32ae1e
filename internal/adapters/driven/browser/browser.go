// Package browser opens the authorization URL in the system browser.
package browser

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/browser"

	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/logger"
)

// Ensure UserAgent implements the interface.
var _ driven.UserAgent = (*UserAgent)(nil)

// UserAgent opens URLs with github.com/pkg/browser. When no browser can be
// started the URL is printed so the user can open it by hand.
type UserAgent struct {
	out       io.Writer
	noBrowser bool
	openURL   func(string) error
}

// New creates a UserAgent that prints fallback instructions to out.
// With noBrowser set, the URL is only printed.
func New(out io.Writer, noBrowser bool) *UserAgent {
	return &UserAgent{
		out:       out,
		noBrowser: noBrowser,
		openURL:   browser.OpenURL,
	}
}

// Open starts the browser. It does not wait for the user.
func (a *UserAgent) Open(ctx context.Context, authorizeURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.noBrowser {
		return a.printURL(authorizeURL)
	}
	if err := a.openURL(authorizeURL); err != nil {
		logger.Warn("failed to open browser: %v", err)
		return a.printURL(authorizeURL)
	}
	return nil
}

func (a *UserAgent) printURL(authorizeURL string) error {
	_, err := fmt.Fprintf(a.out, "Open this URL in your browser to continue:\n\n  %s\n\n", authorizeURL)
	return err
}
