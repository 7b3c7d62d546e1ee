package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/simaogato/wealthflow-rebalancer/internal/render"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
)

// proportionalCmd holds the flags for the 'proportional' subcommand.
type proportionalCmd struct {
	snapshotFlags
	out io.Writer
}

func (*proportionalCmd) Name() string     { return "proportional" }
func (*proportionalCmd) Synopsis() string { return "split cash across wallets toward their ideal shares" }
func (*proportionalCmd) Usage() string {
	return `rebalance proportional -f <portfolio.yaml> -cash <amount> [-x <wallet,...>] [-c <currency>]

  Splits the cash so that every wallet moves toward its ideal share of the value after
  the injection. Wallets already at or above their share receive nothing.
`
}

func (c *proportionalCmd) SetFlags(f *flag.FlagSet) {
	c.snapshotFlags.set(f, "Comma separated wallet names to leave out of the plan")
}

func (c *proportionalCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, cash, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ids := make(map[string]uuid.UUID, len(p.Wallets))
	for _, w := range p.Wallets {
		ids[w.Name] = w.ID
	}
	blacklist, err := c.excluded(ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	buckets := allocator.Exclude(p.WalletBuckets(), blacklist)

	plan, err := allocator.AllocateProportional(buckets, cash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning distribution: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprint(c.out, render.ProportionalPlanMarkdown("Distribution", buckets, plan, p.Names(), c.currency))
	return subcommands.ExitSuccess
}
