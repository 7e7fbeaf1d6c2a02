// Command gatewayctl is an operator tool for the access gateway: it mints
// development session tokens, revokes tokens and dry-runs the access guard.
package main

import (
	"fmt"
	"os"

	"github.com/spec-kit/access-gateway/internal/config"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
