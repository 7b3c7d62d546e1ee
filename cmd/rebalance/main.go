// Command rebalance plans purchases for a portfolio described in a YAML snapshot file.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&discreteCmd{out: os.Stdout}, "plans")
	c.Register(&proportionalCmd{out: os.Stdout}, "plans")
}
