package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// CLI is the root command line
type CLI struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" env:"LOTTO_LOG_LEVEL"`
	JSONLogs bool   `name:"json-logs" help:"Emit JSON formatted logs"`

	Serve      ServeCmd      `cmd:"" help:"Run the HTTP API"`
	Migrate    MigrateCmd    `cmd:"" help:"Manage database migrations"`
	Deploy     DeployCmd     `cmd:"" help:"Create the lottery with a manager"`
	Fund       FundCmd       `cmd:"" help:"Credit an account (development faucet)"`
	Enter      EnterCmd      `cmd:"" help:"Enter the current round"`
	PickWinner PickWinnerCmd `cmd:"pick-winner" help:"Pick a winner and pay out the pool"`
	Players    PlayersCmd    `cmd:"" help:"List entrants in the current round"`
	Rounds     RoundsCmd     `cmd:"" help:"List completed rounds"`
}

// SetupLogging configures the global logrus logger
func SetupLogging(level string, json bool) error {
	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)

	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func parseAddress(flag, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s must be a hex address, got %q", flag, raw)
	}
	return common.HexToAddress(raw), nil
}
