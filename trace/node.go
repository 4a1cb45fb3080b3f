// Package trace rebuilds call trees from the flat trace arenas returned by
// the executor service.
//
// An arena lists call frames in emission order. Each entry names its own
// index and, unless it is a top-level frame, the index of its parent. Build
// turns that list into an ordered forest for depth-first display.
package trace

import (
	"encoding/json"
)

// Node is one arena entry. Trace, Logs and Ordering hold the executor's
// payload verbatim; Build never looks inside them.
type Node struct {
	Index int `json:"idx"`
	// Parent is nil for a top-level frame.
	Parent *int `json:"parent"`
	// Children is the executor's own child list. Build ignores it and
	// derives children from Parent in emission order.
	Children []int           `json:"children"`
	Trace    json.RawMessage `json:"trace"`
	Logs     json.RawMessage `json:"logs,omitempty"`
	Ordering json.RawMessage `json:"ordering,omitempty"`
}

// Frame is a read-only view of the call-frame fields of a trace payload.
type Frame struct {
	Depth    int      `json:"depth"`
	Success  bool     `json:"success"`
	Caller   string   `json:"caller"`
	Address  string   `json:"address"`
	Kind     string   `json:"kind"`
	Value    Quantity `json:"value"`
	Data     string   `json:"data"`
	Output   string   `json:"output"`
	GasUsed  Quantity `json:"gas_used"`
	GasLimit Quantity `json:"gas_limit"`
	Status   string   `json:"status"`
}

// Frame decodes the well-known fields of the trace payload. Fields that are
// missing or carry an unexpected type are left zero.
func (n Node) Frame() Frame {
	var f Frame
	if len(n.Trace) > 0 {
		_ = json.Unmarshal(n.Trace, &f)
	}
	return f
}

// Quantity is a numeric payload field sent either as a JSON number or as a
// string such as "0x5208". The text is kept as sent.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*q = Quantity(s)
		return nil
	}
	if string(b) == "null" {
		*q = ""
		return nil
	}
	*q = Quantity(b)
	return nil
}

func (q Quantity) String() string { return string(q) }

// Arena is a list of nodes in emission order.
type Arena []Node

// Traces is the wrapper the executor puts around an arena.
type Traces struct {
	Arena Arena `json:"arena"`
}

// Parent returns a pointer to idx, for building nodes by hand.
func Parent(idx int) *int { return &idx }
