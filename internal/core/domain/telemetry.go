package domain

import (
	"encoding/base64"
	"encoding/json"
)

// TelemetryHeader is the request header carrying client telemetry.
const TelemetryHeader = "Auth0-Client"

// Telemetry identifies the client library to the provider.
type Telemetry struct {
	Name           string `json:"name,omitempty"`
	Version        string `json:"version,omitempty"`
	LibraryVersion string `json:"lib_version,omitempty"`
}

// Value returns the base64url-encoded JSON header value, or empty when
// no field is set.
func (t Telemetry) Value() string {
	if t == (Telemetry{}) {
		return ""
	}
	data, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}
