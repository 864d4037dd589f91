package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/loanguard/internal/cli"
	"github.com/okian/loanguard/internal/config"
	"github.com/okian/loanguard/pkg/logger"
)

func main() {
	var (
		count   = flag.Int("count", cli.DefaultCount, "Fixtures generated per profile by simulate")
		months  = flag.Int("months", 0, "Months of history to simulate (default from config)")
		samples = flag.Int("samples", cli.DefaultSamples, "Samples per profile for evaluate")
		url     = flag.String("url", cli.DefaultURL, "Base URL of the server for smoke")
		timeout = flag.Duration("timeout", cli.DefaultTimeout, "HTTP request timeout for smoke")
		logFile = flag.String("log", "", "Also append logs to this file")
		verbose = flag.Bool("verbose", false, "Print feature vectors with each decision")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Usage = func() { cli.ShowHelp(os.Stderr) }
	flag.Parse()

	if *help || flag.NArg() == 0 {
		cli.ShowHelp(os.Stdout)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	closer, err := cli.SetupLogging(*logFile, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cli.Options{
		Command: flag.Arg(0),
		Profile: flag.Arg(1),
		Count:   *count,
		Months:  *months,
		Samples: *samples,
		URL:     *url,
		Timeout: *timeout,
		Verbose: *verbose,
	}
	if err := cli.Run(ctx, cfg, opts); err != nil {
		logger.Get().Error(ctx, "command failed", logger.String("command", opts.Command), logger.Error(err))
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
