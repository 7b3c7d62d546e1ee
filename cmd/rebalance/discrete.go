package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/simaogato/wealthflow-rebalancer/internal/portfolio"
	"github.com/simaogato/wealthflow-rebalancer/internal/render"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
)

// discreteCmd holds the flags for the 'discrete' subcommand.
type discreteCmd struct {
	snapshotFlags
	wallet string
	out    io.Writer
}

func (*discreteCmd) Name() string     { return "discrete" }
func (*discreteCmd) Synopsis() string { return "plan whole-unit purchases inside a wallet" }
func (*discreteCmd) Usage() string {
	return `rebalance discrete -f <portfolio.yaml> -cash <amount> [-wallet <name>] [-x <asset,...>] [-c <currency>]

  Spends the cash one unit at a time on the priced asset currently holding the least value.
  -wallet may be omitted when the snapshot has a single wallet.
`
}

func (c *discreteCmd) SetFlags(f *flag.FlagSet) {
	c.snapshotFlags.set(f, "Comma separated asset names to leave out of the plan")
	f.StringVar(&c.wallet, "wallet", "", "Name of the wallet to invest in")
}

func (c *discreteCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, cash, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	w, err := c.pickWallet(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ids := make(map[string]uuid.UUID, len(w.Assets))
	for _, a := range w.Assets {
		ids[a.Name] = a.ID
	}
	blacklist, err := c.excluded(ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	buckets, unpriced := w.AssetBuckets()
	buckets = allocator.Exclude(buckets, blacklist)

	plan, err := allocator.AllocateDiscrete(buckets, cash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning purchase for %s: %v\n", w.Name, err)
		return subcommands.ExitFailure
	}

	names := make([]string, len(unpriced))
	for i, a := range unpriced {
		names[i] = a.Name
	}

	fmt.Fprint(c.out, render.DiscretePlanMarkdown(w.Name, buckets, plan, names, c.currency))
	return subcommands.ExitSuccess
}

func (c *discreteCmd) pickWallet(p *portfolio.Portfolio) (*portfolio.Wallet, error) {
	if c.wallet == "" {
		if len(p.Wallets) != 1 {
			return nil, fmt.Errorf("-wallet is required when the snapshot has %d wallets", len(p.Wallets))
		}
		return &p.Wallets[0], nil
	}

	w, ok := p.Wallet(c.wallet)
	if !ok {
		return nil, fmt.Errorf("wallet %q not found", c.wallet)
	}
	return w, nil
}
