// Package session wires call parsing, the executor service and trace tree
// building into the live edit loop of the playground: the contract source
// is recompiled and the call lines re-executed shortly after the user stops
// typing, and each round's results replace the previous ones wholesale.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/callscope/executor"
	"github.com/rubiojr/callscope/internal/ctxlog"
	"github.com/rubiojr/callscope/invocation"
	"github.com/rubiojr/callscope/trace"
)

// Backend compiles source and runs invocations against a compiled
// contract. *executor.Client implements it.
type Backend interface {
	Compile(ctx context.Context, source string) (*executor.CompileResult, error)
	Run(ctx context.Context, contract executor.Contract, invs []invocation.Invocation, value, caller string) ([]executor.Result, error)
}

// CallResult pairs one executed invocation with its result and call tree.
type CallResult struct {
	Line       int
	Invocation invocation.Invocation
	Result     executor.Result
	Forest     []*trace.Tree
}

// Update is delivered after every completed round. A compile round sets
// Compile, an execute round sets Calls; Err is set when the round failed.
type Update struct {
	Seq     uint64
	Compile *executor.CompileResult
	Calls   []CallResult
	Err     error
}

// Options tunes a Session.
type Options struct {
	CompileDebounce time.Duration
	CallDebounce    time.Duration
	Value           string
	Caller          string
	OnUpdate        func(Update)
}

// Session tracks the current source and call lines.
type Session struct {
	backend Backend
	opts    Options
	compile *Debouncer
	calls   *Debouncer

	mu       sync.Mutex
	lines    []string
	contract *executor.Contract
	seq      uint64
}

// New starts a session. Close it to stop pending and in-flight rounds.
func New(ctx context.Context, backend Backend, opts Options) *Session {
	return &Session{
		backend: backend,
		opts:    opts,
		compile: NewDebouncer(ctx, opts.CompileDebounce),
		calls:   NewDebouncer(ctx, opts.CallDebounce),
	}
}

// SetSource schedules a compile of source. A successful compile that yields
// at least one contract replaces the contract calls run against and
// re-runs the current call lines.
func (s *Session) SetSource(source string) {
	s.compile.Trigger(func(ctx context.Context) {
		log := ctxlog.FromContext(ctx)
		res, err := s.backend.Compile(ctx, source)
		if ctx.Err() != nil {
			log.Debug("compile superseded")
			return
		}
		if err != nil {
			s.emit(Update{Err: err})
			return
		}

		if last, ok := res.Last(); ok {
			s.mu.Lock()
			s.contract = &last
			s.mu.Unlock()
		}
		s.emit(Update{Compile: res})
		s.scheduleCalls()
	})
}

// SetCalls replaces the call lines and schedules their execution.
func (s *Session) SetCalls(lines []string) {
	s.mu.Lock()
	s.lines = append([]string(nil), lines...)
	s.mu.Unlock()
	s.scheduleCalls()
}

func (s *Session) scheduleCalls() {
	s.mu.Lock()
	contract := s.contract
	located := invocation.Indexed(s.lines)
	s.mu.Unlock()

	if contract == nil || len(located) == 0 {
		return
	}

	invs := make([]invocation.Invocation, len(located))
	for i, l := range located {
		invs[i] = l.Invocation
	}

	s.calls.Trigger(func(ctx context.Context) {
		results, err := s.backend.Run(ctx, *contract, invs, s.opts.Value, s.opts.Caller)
		if ctx.Err() != nil {
			ctxlog.FromContext(ctx).Debug("execution superseded")
			return
		}
		if err == nil && len(results) != len(located) {
			err = fmt.Errorf("expected %d results, got %d", len(located), len(results))
		}
		if err != nil {
			s.emit(Update{Err: err})
			return
		}
		out := make([]CallResult, len(results))
		for i, r := range results {
			out[i] = CallResult{
				Line:       located[i].Line,
				Invocation: located[i].Invocation,
				Result:     r,
				Forest:     r.Forest(),
			}
		}
		s.emit(Update{Calls: out})
	})
}

func (s *Session) emit(u Update) {
	s.mu.Lock()
	s.seq++
	u.Seq = s.seq
	s.mu.Unlock()
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(u)
	}
}

// Close stops both debouncers and waits for in-flight rounds to return.
func (s *Session) Close() {
	s.compile.Stop()
	s.calls.Stop()
}
