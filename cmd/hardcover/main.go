// Command hardcover explores and documents the Hardcover GraphQL API.
package main

import (
	"context"
	"os"

	"github.com/hardcoverapp/hardcover-explorer/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
