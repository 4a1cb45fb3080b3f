package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/callscope/config"
	"github.com/rubiojr/callscope/executor"
	"github.com/rubiojr/callscope/internal/ctxlog"
	"github.com/rubiojr/callscope/invocation"
	"github.com/rubiojr/callscope/trace"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// output is where command results are written.
var output io.Writer = os.Stdout

// appKey stores the loaded *app in the command context.
type appKey struct{}

type app struct {
	cfg    config.Config
	stdout io.Writer
	color  bool
}

func appFrom(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a
	}
	return &app{cfg: config.Default(), stdout: output}
}

// Execute runs the callscope CLI with the given version string.
func Execute(version string) {
	if err := New(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// New builds the root command.
func New(version string) *cli.Command {
	return &cli.Command{
		Name:                   "callscope",
		Usage:                  "Parse contract calls, run them remotely and inspect their call traces",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default: ./" + config.DefaultFile + " if present)",
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Compile/execute service base URL",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse a calls file and print one JSON invocation per line",
				ArgsUsage: "<calls-file | ->",
				Action:    parseAction,
			},
			{
				Name:      "trace",
				Usage:     "Rebuild and print the call tree of a trace arena",
				ArgsUsage: "<arena.json | arena.yaml>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the forest as JSON"},
				},
				Action: traceAction,
			},
			{
				Name:      "compile",
				Usage:     "Compile a contract with the remote service",
				ArgsUsage: "<source.sol>",
				Action:    compileAction,
			},
			{
				Name:      "run",
				Usage:     "Compile a contract, execute a calls file against it and print the traces",
				ArgsUsage: "<source.sol> <calls-file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-trace", Usage: "Skip the call trees"},
				},
				Action: runAction,
			},
			{
				Name:      "watch",
				Usage:     "Recompile and re-run whenever the source or calls file changes",
				ArgsUsage: "<source.sol> <calls-file>",
				Action:    watchAction,
			},
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if s := cmd.String("server"); s != "" {
		cfg.Server = s
	}
	if l := cmd.String("log-level"); l != "" {
		cfg.LogLevel = l
	}

	a := &app{
		cfg:    cfg,
		stdout: output,
		color:  useColor(cmd.Bool("no-color")),
	}
	ctx = ctxlog.WithLogger(ctx, ctxlog.New(os.Stderr, cfg.LogLevel))
	return context.WithValue(ctx, appKey{}, a), nil
}

// useColor enables color only on an interactive stdout without NO_COLOR.
func useColor(disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newClient(cfg config.Config) (*executor.Client, error) {
	opts := []executor.Option{executor.WithTimeout(cfg.Timeout)}
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := executor.DefaultCacheDir()
			if err != nil {
				return nil, fmt.Errorf("locating compile cache: %w", err)
			}
			dir = d
		}
		opts = append(opts, executor.WithCache(executor.NewCache(dir, cfg.Cache.MaxBytes)))
	}
	return executor.New(cfg.Server, opts...), nil
}

func parseAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: callscope parse <calls-file | ->")
	}
	lines, err := invocation.ReadFile(cmd.Args().First())
	if err != nil {
		return err
	}

	located := invocation.Indexed(lines)
	candidates := 0
	for _, l := range lines {
		if !invocation.IsComment(l) {
			candidates++
		}
	}
	if dropped := candidates - len(located); dropped > 0 {
		ctxlog.FromContext(ctx).Info("skipped lines that are not calls", "count", dropped)
	}

	enc := json.NewEncoder(appFrom(ctx).stdout)
	for _, l := range located {
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	return nil
}

func traceAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: callscope trace <arena.json | arena.yaml>")
	}
	arena, err := trace.LoadArena(cmd.Args().First())
	if err != nil {
		return err
	}
	forest := trace.Build(arena)
	ctxlog.FromContext(ctx).Debug("built forest", "nodes", len(arena), "roots", len(forest))

	a := appFrom(ctx)
	if cmd.Bool("json") {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(forest)
	}
	return trace.Dump(a.stdout, forest, trace.DumpOptions{Color: a.color})
}

func compileAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: callscope compile <source.sol>")
	}
	a := appFrom(ctx)
	source, err := os.ReadFile(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	client, err := newClient(a.cfg)
	if err != nil {
		return err
	}
	res, err := client.Compile(ctx, string(source))
	if err != nil {
		return err
	}
	printCompile(a.stdout, res)
	if res.Failed() {
		return fmt.Errorf("compilation failed")
	}
	return nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("usage: callscope run <source.sol> <calls-file>")
	}
	a := appFrom(ctx)
	source, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	lines, err := invocation.ReadFile(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	client, err := newClient(a.cfg)
	if err != nil {
		return err
	}

	res, err := client.Compile(ctx, string(source))
	if err != nil {
		return err
	}
	if res.Failed() {
		printCompile(a.stdout, res)
		return fmt.Errorf("compilation failed")
	}
	contract, ok := res.Last()
	if !ok {
		return fmt.Errorf("no contract in %s", cmd.Args().Get(0))
	}

	located := invocation.Indexed(lines)
	if len(located) == 0 {
		return fmt.Errorf("no calls in %s", cmd.Args().Get(1))
	}
	invs := make([]invocation.Invocation, len(located))
	for i, l := range located {
		invs[i] = l.Invocation
	}

	results, err := client.Run(ctx, contract, invs, a.cfg.Value, a.cfg.Caller)
	if err != nil {
		return err
	}
	for i, r := range results {
		if err := printResult(a.stdout, located[i], r, !cmd.Bool("no-trace"), a.color); err != nil {
			return err
		}
	}
	return nil
}
