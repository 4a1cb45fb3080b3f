package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/callscope/executor"
	"github.com/rubiojr/callscope/invocation"
	"github.com/rubiojr/callscope/trace"
)

func printCompile(w io.Writer, res *executor.CompileResult) {
	for _, c := range res.Contracts {
		fmt.Fprintf(w, "contract %s (%d bytes of bytecode)\n", c.Name, len(strings.TrimPrefix(c.Bytecode, "0x"))/2)
	}
	for _, e := range res.Errors {
		fmt.Fprintln(w, e.String())
		if e.Details.CodeSnippet != "" {
			fmt.Fprintf(w, "    %s\n", e.Details.CodeSnippet)
		}
	}
}

func printResult(w io.Writer, call invocation.Located, r executor.Result, withTrace, color bool) error {
	fmt.Fprintf(w, "%s  (line %d)\n", call.Invocation.String(), call.Line+1)
	if r.Reverted {
		fmt.Fprintf(w, "  Reverted: %s\n", r.ExitReason)
	}
	switch {
	case r.Returned != nil:
		fmt.Fprintf(w, "  Returned: %s\n", executor.FormatValues(r.Returned))
	case r.DecodeErr != nil:
		fmt.Fprintf(w, "  Returned: %s (%v)\n", r.Output, r.DecodeErr)
	default:
		fmt.Fprintf(w, "  Returned: %s\n", r.Output)
	}
	fmt.Fprintf(w, "  Gas used: %s\n", r.GasUsed)
	for i, l := range r.Logs {
		if i < len(r.Events) && r.Events[i] != nil {
			fmt.Fprintf(w, "  Log: %s %v\n", r.Events[i].Name, r.Events[i].Args)
			continue
		}
		fmt.Fprintf(w, "  Log: topics=%v data=%s\n", l.Topics, l.Data)
	}
	if !withTrace {
		return nil
	}
	return trace.Dump(w, r.Forest(), trace.DumpOptions{Indent: "  ", Color: color})
}
