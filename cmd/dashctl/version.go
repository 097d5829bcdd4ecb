package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/rickgao/marketdash/internal/version"
)

type versionCmd struct {
	json bool
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print build information" }
func (*versionCmd) Usage() string {
	return `dashctl version [-json]
`
}

func (c *versionCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.json {
		if err := json.NewEncoder(os.Stdout).Encode(version.Get()); err != nil {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	fmt.Println("dashctl " + version.String())
	return subcommands.ExitSuccess
}
