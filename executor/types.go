package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rubiojr/callscope/invocation"
	"github.com/rubiojr/callscope/trace"
)

// ZeroAddress is the default caller for executed calls.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Contract is one compiled contract. ABI is the JSON ABI as text.
type Contract struct {
	Name     string `json:"name"`
	ABI      string `json:"abi"`
	Bytecode string `json:"bytecode"`
}

// ErrorDetails locates a compiler diagnostic in the source.
type ErrorDetails struct {
	Line        int    `json:"line,omitempty"`
	Column      int    `json:"column,omitempty"`
	CodeSnippet string `json:"codeSnippet,omitempty"`
}

// CompileError is a compiler diagnostic. Type is "Error" or "Warning".
type CompileError struct {
	Type    string       `json:"errorType"`
	Message string       `json:"message"`
	Details ErrorDetails `json:"details"`
}

// IsError reports whether the diagnostic is fatal.
func (e CompileError) IsError() bool { return e.Type == "Error" }

func (e CompileError) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Type, e.Message)
	if e.Details.Line > 0 {
		fmt.Fprintf(&sb, " (line %d", e.Details.Line)
		if e.Details.Column > 0 {
			fmt.Fprintf(&sb, ", column %d", e.Details.Column)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// CompileResult is the compiler response.
type CompileResult struct {
	Contracts []Contract     `json:"data"`
	Errors    []CompileError `json:"errors"`
}

// Last returns the last contract in the compiled source, which is the one
// calls are executed against.
func (r *CompileResult) Last() (Contract, bool) {
	if r == nil || len(r.Contracts) == 0 {
		return Contract{}, false
	}
	return r.Contracts[len(r.Contracts)-1], true
}

// Failed reports whether any diagnostic is an error.
func (r *CompileResult) Failed() bool {
	for _, e := range r.Errors {
		if e.IsError() {
			return true
		}
	}
	return false
}

// Call is one ABI-encoded invocation as sent to the executor.
type Call struct {
	Calldata string `json:"calldata"`
	Value    string `json:"value"`
	Caller   string `json:"caller"`
}

// CallsFor encodes invs against codec. Empty value and caller default to
// "0" and ZeroAddress. The first invocation that does not fit the ABI fails
// the whole batch.
func CallsFor(codec *ContractABI, invs []invocation.Invocation, value, caller string) ([]Call, error) {
	if value == "" {
		value = "0"
	}
	if caller == "" {
		caller = ZeroAddress
	}
	calls := make([]Call, 0, len(invs))
	for _, inv := range invs {
		data, err := codec.EncodeCall(inv)
		if err != nil {
			return nil, err
		}
		calls = append(calls, Call{Calldata: data, Value: value, Caller: caller})
	}
	return calls, nil
}

type compileRequest struct {
	Code string `json:"code"`
}

type executeRequest struct {
	Bytecode string `json:"bytecode"`
	Calls    []Call `json:"calls"`
}

// Log is a raw event log emitted during execution.
type Log struct {
	Address string   `json:"address,omitempty"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Result is the executor's answer for one call.
type Result struct {
	ExitReason string       `json:"exitReason"`
	Reverted   bool         `json:"reverted"`
	Output     string       `json:"result"`
	GasUsed    json.Number  `json:"gasUsed"`
	Logs       []Log        `json:"logs"`
	Traces     trace.Traces `json:"traces"`

	// Set by ContractABI.Decode. Events lines up with Logs; an entry is nil
	// when the log matches no event of the contract.
	Returned  []any    `json:"-"`
	Events    []*Event `json:"-"`
	DecodeErr error    `json:"-"`
}

// Forest builds the call tree of the result's trace arena.
func (r Result) Forest() []*trace.Tree {
	return trace.Build(r.Traces.Arena)
}
