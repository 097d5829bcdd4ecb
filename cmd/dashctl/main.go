// Command dashctl is the terminal client of the market dashboard.
//
// It shares configuration and session storage with the dashboard server, so
// logging in with dashctl also signs in the browser dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	register(commander)

	// Answers shell completion requests and exits when one is pending.
	completion(commander).Complete(name)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&loginCmd{}, "session")
	c.Register(&logoutCmd{}, "session")
	c.Register(&whoamiCmd{}, "session")

	c.Register(&marketsCmd{}, "markets")
	c.Register(&stockCmd{}, "markets")
	c.Register(&chartCmd{}, "markets")
	c.Register(&watchCmd{}, "markets")

	c.Register(&versionCmd{}, "")
}
