// Package messages defines Bubbletea message types for the login view.
package messages

import (
	callback "github.com/custodia-labs/authkit/internal/adapters/driving/oauth"
)

// ResultReceived carries the first resolution published by the callback server.
type ResultReceived struct {
	Result callback.Result
}

// BrowserOpened reports the outcome of reopening the authorization URL.
type BrowserOpened struct {
	Err error
}
