package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthflow-rebalancer/internal/portfolio"
)

// snapshotFlags are shared by every plan command
type snapshotFlags struct {
	file      string
	cash      string
	currency  string
	blacklist string
}

func (s *snapshotFlags) set(f *flag.FlagSet, blacklistUsage string) {
	f.StringVar(&s.file, "f", "portfolio.yaml", "Path to the portfolio snapshot (YAML)")
	f.StringVar(&s.cash, "cash", "", "Cash amount to invest")
	f.StringVar(&s.currency, "c", "EUR", "Currency used to display amounts")
	f.StringVar(&s.blacklist, "x", "", blacklistUsage)
}

// load reads the snapshot and parses the cash amount
func (s *snapshotFlags) load() (*portfolio.Portfolio, decimal.Decimal, error) {
	if s.cash == "" {
		return nil, decimal.Zero, errors.New("-cash is required")
	}

	cash, err := decimal.NewFromString(s.cash)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid -cash %q: %w", s.cash, err)
	}

	p, err := portfolio.Load(s.file)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return p, cash, nil
}

// excluded resolves the comma separated -x names against ids
func (s *snapshotFlags) excluded(ids map[string]uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, name := range strings.Split(s.blacklist, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("unknown name %q in -x", name)
		}
		out = append(out, id)
	}
	return out, nil
}
