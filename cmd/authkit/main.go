// Command authkit logs in to an OAuth2 identity provider and caches the
// resulting credentials for scripts and other tools.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/authkit/internal/adapters/driving/cli"
	"github.com/custodia-labs/authkit/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(context.Background()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
