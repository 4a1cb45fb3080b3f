package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rubiojr/callscope/internal/ctxlog"
	"github.com/rubiojr/callscope/invocation"
	"github.com/rubiojr/callscope/session"
	"github.com/urfave/cli/v3"
)

func watchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("usage: callscope watch <source.sol> <calls-file>")
	}
	a := appFrom(ctx)
	client, err := newClient(a.cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var out sync.Mutex
	s := session.New(ctx, client, session.Options{
		CompileDebounce: a.cfg.CompileDebounce,
		CallDebounce:    a.cfg.CallDebounce,
		Value:           a.cfg.Value,
		Caller:          a.cfg.Caller,
		OnUpdate: func(u session.Update) {
			out.Lock()
			defer out.Unlock()
			if err := printUpdate(a, u); err != nil {
				ctxlog.FromContext(ctx).Error("writing update", "seq", u.Seq, "error", err)
			}
		},
	})
	defer s.Close()

	w := &watcher{
		sourcePath: cmd.Args().Get(0),
		callsPath:  cmd.Args().Get(1),
		session:    s,
	}
	return w.run(ctx, a.cfg.PollInterval)
}

func printUpdate(a *app, u session.Update) error {
	fmt.Fprintf(a.stdout, "--- update %d ---\n", u.Seq)
	switch {
	case u.Err != nil:
		fmt.Fprintf(a.stdout, "error: %v\n", u.Err)
	case u.Compile != nil:
		printCompile(a.stdout, u.Compile)
	default:
		for _, c := range u.Calls {
			loc := invocation.Located{Line: c.Line, Invocation: c.Invocation}
			if err := printResult(a.stdout, loc, c.Result, true, a.color); err != nil {
				return err
			}
		}
	}
	return nil
}

// watcher polls two files by modification time and feeds changes into a
// session.
type watcher struct {
	sourcePath string
	callsPath  string
	session    *session.Session

	sourceMod time.Time
	callsMod  time.Time
}

func (w *watcher) run(ctx context.Context, interval time.Duration) error {
	if err := w.poll(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				ctxlog.FromContext(ctx).Warn("poll failed", "error", err)
			}
		}
	}
}

func (w *watcher) poll(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	// Calls first, so a source change in the same tick runs the new lines.
	if mod, changed, err := modifiedSince(w.callsPath, w.callsMod); err != nil {
		return err
	} else if changed {
		w.callsMod = mod
		lines, err := invocation.ReadFile(w.callsPath)
		if err != nil {
			return err
		}
		log.Debug("calls changed", "lines", len(lines))
		w.session.SetCalls(lines)
	}

	if mod, changed, err := modifiedSince(w.sourcePath, w.sourceMod); err != nil {
		return err
	} else if changed {
		w.sourceMod = mod
		src, err := os.ReadFile(w.sourcePath)
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}
		log.Debug("source changed", "bytes", len(src))
		w.session.SetSource(string(src))
	}
	return nil
}

func modifiedSince(path string, last time.Time) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return last, false, fmt.Errorf("watching %s: %w", path, err)
	}
	return info.ModTime(), !info.ModTime().Equal(last), nil
}
