package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/loanguard/internal/app"
	"github.com/okian/loanguard/internal/config"
	"github.com/okian/loanguard/internal/simulation"
	"github.com/okian/loanguard/pkg/logger"
)

// Defaults for command options.
const (
	DefaultCount   = 1
	DefaultSamples = 100
	DefaultURL     = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
)

// ErrUsage reports an invalid command line.
var ErrUsage = errors.New("usage error")

// Run executes one CLI command with cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}

	if opts.Command == CommandSmoke {
		return runSmoke(ctx, opts)
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	switch opts.Command {
	case CommandSimulate:
		return runSimulate(ctx, svc, opts)
	case CommandScore:
		return runScore(ctx, svc, opts)
	case CommandEvaluate:
		return runEvaluate(ctx, svc, opts)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, opts.Command)
	}
}

func newService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	store, err := service.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := append(service.OptionsFromConfig(cfg),
		service.WithStore(store),
		service.WithLogger(logger.Named("cli")),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

// fixtureName names the i-th fixture of profile. A single fixture keeps the
// bare profile name.
func fixtureName(profile string, i, count int) string {
	if count <= 1 {
		return profile
	}
	return profile + "_" + strconv.Itoa(i+1)
}

func runSimulate(ctx context.Context, svc *service.Service, opts Options) error {
	start := time.Now()
	count := opts.Count
	if count <= 0 {
		count = DefaultCount
	}
	profiles := simulation.Profiles()
	if opts.Profile != "" {
		profiles = []string{opts.Profile}
	}

	written := 0
	for _, profile := range profiles {
		for i := 0; i < count; i++ {
			rec, err := svc.Simulate(profile, opts.Months)
			if err != nil {
				return fmt.Errorf("simulate %s: %w", profile, err)
			}
			name := fixtureName(profile, i, count)
			if err := svc.SaveFixture(ctx, name, rec); err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}
			written++
			fmt.Fprintf(opts.Out, "stored %-24s %3d transactions %2d repayments\n",
				name, len(rec.Transactions), len(rec.Repayments))
		}
	}

	logger.Get().Info(ctx, "fixtures generated",
		logger.Int("fixtures", written),
		logger.String("took", since(start)))
	return nil
}

func runScore(ctx context.Context, svc *service.Service, opts Options) error {
	name := opts.Profile
	if name == "" {
		names, err := svc.Fixtures(ctx)
		if err != nil {
			return fmt.Errorf("list fixtures: %w", err)
		}
		if len(names) == 0 {
			return fmt.Errorf("%w: no stored fixtures, run %q first", ErrUsage, CommandSimulate)
		}
		name, err = choose(opts.In, opts.Out, names)
		if err != nil {
			return err
		}
	}

	res, err := svc.ScoreFixture(ctx, name)
	if err != nil {
		return fmt.Errorf("score %s: %w", name, err)
	}
	printDecision(opts.Out, name, res, opts.Verbose)
	return nil
}

// choose prints a numbered menu of names and reads a selection, by number
// or by name, from in.
func choose(in io.Reader, out io.Writer, names []string) (string, error) {
	fmt.Fprintln(out, "Stored borrowers:")
	for i, n := range names {
		fmt.Fprintf(out, "  %d) %s\n", i+1, n)
	}
	fmt.Fprint(out, "Select a borrower: ")

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read selection: %w", err)
		}
		return "", fmt.Errorf("%w: no selection", ErrUsage)
	}
	answer := strings.TrimSpace(sc.Text())
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(names) {
			return "", fmt.Errorf("%w: selection %d out of range 1..%d", ErrUsage, n, len(names))
		}
		return names[n-1], nil
	}
	for _, n := range names {
		if n == answer {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown borrower %q", ErrUsage, answer)
}

func runEvaluate(ctx context.Context, svc *service.Service, opts Options) error {
	samples := opts.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	report, err := svc.Evaluate(ctx, samples, opts.Months)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	printReport(opts.Out, report)
	return nil
}
