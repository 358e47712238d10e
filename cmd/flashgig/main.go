// Command flashgig is the Flash Gig command-line client.
package main

import (
	"context"
	"os"

	"github.com/sakif/flashgig/internal/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), os.Args[1:]))
}
