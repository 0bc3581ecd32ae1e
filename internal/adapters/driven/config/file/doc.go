// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage at ~/.authkit/config.toml,
//     with AUTHKIT_* environment variables taking precedence over the file
package file
