package trace

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions controls Dump output.
type DumpOptions struct {
	// Indent is repeated once per depth level. Defaults to two spaces.
	Indent string
	// Color enables ANSI colors on the output line.
	Color bool
}

const (
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiReset  = "\033[0m"
)

// Dump writes forest as indented text, one frame header per node followed
// by its gas, status and input data, then its children, then its output.
func Dump(w io.Writer, forest []*Tree, opts DumpOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	d := &dumper{w: w, opts: opts}
	for _, t := range forest {
		d.tree(t, 0)
	}
	return d.err
}

type dumper struct {
	w    io.Writer
	opts DumpOptions
	err  error
}

func (d *dumper) printf(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	if _, d.err = io.WriteString(d.w, strings.Repeat(d.opts.Indent, depth)); d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format+"\n", args...)
}

// tree recurses because the output line must follow the children.
func (d *dumper) tree(t *Tree, depth int) {
	f := t.Node.Frame()
	d.printf(depth, "[%d] %s %s", t.Node.Index, f.Kind, f.Address)
	d.printf(depth+1, "├─ Gas used: %s", f.GasUsed)
	d.printf(depth+1, "├─ Status: %s", f.Status)
	if f.Data != "" {
		d.printf(depth+1, "├─ Data: %s", f.Data)
	}
	for _, c := range t.Children {
		d.tree(c, depth+1)
	}
	if f.Output != "" {
		if d.opts.Color {
			d.printf(depth+1, "%s└─ Output: %s%s%s", ansiYellow, ansiGreen, f.Output, ansiReset)
		} else {
			d.printf(depth+1, "└─ Output: %s", f.Output)
		}
	}
}
