package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"lotto/config"
	"lotto/lottery"
)

// withApp opens a Postgres-backed app for a one-shot command
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx, config.Get(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(a)
}

type DeployCmd struct {
	Manager string `help:"Manager address (defaults to LOTTO_MANAGER)"`
}

func (c *DeployCmd) Run(ctx context.Context) error {
	raw := c.Manager
	if raw == "" {
		raw = config.Get().Manager
	}
	manager, err := parseAddress("manager", raw)
	if err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		state, err := a.lottery.Deploy(ctx, manager)
		if err != nil {
			return err
		}
		fmt.Printf("Deployed lottery: manager %s, minimum stake %s ether\n",
			state.Manager.Hex(), lottery.FormatEther(state.MinStake))
		return nil
	})
}

type FundCmd struct {
	Address string `arg:"" help:"Account address"`
	Amount  string `arg:"" help:"Amount in wei or with an ether suffix (0.5ether)"`
}

func (c *FundCmd) Run(ctx context.Context) error {
	address, err := parseAddress("address", c.Address)
	if err != nil {
		return err
	}
	amount, err := lottery.ParseAmount(c.Amount)
	if err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		account, err := a.accounts.Fund(ctx, address, amount)
		if err != nil {
			return err
		}
		fmt.Printf("%s balance: %s ether\n", account.Address.Hex(), lottery.FormatEther(account.Balance))
		return nil
	})
}

type EnterCmd struct {
	From  string `required:"" help:"Entrant address"`
	Stake string `required:"" help:"Stake in wei or with an ether suffix (0.02ether)"`
}

func (c *EnterCmd) Run(ctx context.Context) error {
	from, err := parseAddress("from", c.From)
	if err != nil {
		return err
	}
	stake, err := lottery.ParseAmount(c.Stake)
	if err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		if err := a.lottery.Enter(ctx, from, stake); err != nil {
			return err
		}
		fmt.Printf("%s entered with %s ether\n", from.Hex(), lottery.FormatEther(stake))
		return nil
	})
}

type PickWinnerCmd struct {
	From string `required:"" help:"Caller address; must be the manager"`
}

func (c *PickWinnerCmd) Run(ctx context.Context) error {
	from, err := parseAddress("from", c.From)
	if err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		result, err := a.lottery.PickWinner(ctx, from)
		if err != nil {
			return err
		}
		fmt.Printf("Round %d: %s won %s ether (%d entrants)\n",
			result.Round, result.Winner.Hex(), lottery.FormatEther(result.Payout), result.EntrantSize)
		return nil
	})
}

type PlayersCmd struct{}

func (c *PlayersCmd) Run(ctx context.Context) error {
	return withApp(ctx, func(a *app) error {
		state, err := a.lottery.GetState(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Round %d, pool %s ether, %d entrants\n",
			state.Round, lottery.FormatEther(state.Balance), len(state.Players))
		for i, p := range state.Players {
			fmt.Printf("%3d  %s\n", i, p.Hex())
		}
		return nil
	})
}

type RoundsCmd struct {
	Limit int `default:"20" help:"Maximum number of rounds to show"`
}

func (c *RoundsCmd) Run(ctx context.Context) error {
	return withApp(ctx, func(a *app) error {
		rounds, err := a.lottery.ListRounds(ctx, c.Limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROUND\tWINNER\tPAYOUT (ETH)\tENTRANTS\tPICKED AT")
		for _, r := range rounds {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
				r.Round, r.Winner.Hex(), lottery.FormatEther(r.Payout), r.EntrantSize, r.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}
