// Package memory provides in-memory implementations of the driven storage
// ports. Nothing survives the process; use it for tests and for hosts that
// hold credentials only for their own lifetime.
package memory
