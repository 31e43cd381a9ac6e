package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"lotto/cmd"
)

func main() {
	var cli cmd.CLI
	kctx := kong.Parse(&cli,
		kong.Name("lotto"),
		kong.Description("Single-round lottery escrow"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := cmd.SetupLogging(cli.LogLevel, cli.JSONLogs); err != nil {
		kctx.FatalIfErrorf(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run())
}
