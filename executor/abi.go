package executor

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rubiojr/callscope/invocation"
)

// ContractABI encodes calls for, and decodes the results of, one compiled
// contract.
type ContractABI struct {
	abi abi.ABI
}

// Event is a log decoded against the contract's event definitions.
type Event struct {
	Name string
	Args map[string]any
}

// ParseABI parses the JSON ABI text the compiler returns for a contract.
func ParseABI(text string) (*ContractABI, error) {
	parsed, err := abi.JSON(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing abi: %w", err)
	}
	return &ContractABI{abi: parsed}, nil
}

// EncodeCall returns the hex calldata for inv. Argument values are matched
// against the function's declared input types.
func (c *ContractABI) EncodeCall(inv invocation.Invocation) (string, error) {
	method, ok := c.abi.Methods[inv.Name]
	if !ok {
		return "", fmt.Errorf("%s: no such function", inv.Name)
	}
	if len(inv.Args) != len(method.Inputs) {
		return "", fmt.Errorf("%s: expected %d arguments, got %d", inv.Name, len(method.Inputs), len(inv.Args))
	}
	args := make([]any, len(inv.Args))
	for i, in := range method.Inputs {
		v, err := convert(in.Type, inv.Args[i])
		if err != nil {
			return "", fmt.Errorf("%s: argument %d (%s): %w", inv.Name, i+1, in.Type.String(), err)
		}
		args[i] = v.Interface()
	}
	data, err := c.abi.Pack(inv.Name, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", inv.Name, err)
	}
	return hexutil.Encode(data), nil
}

// DecodeOutput unpacks the hex return data of function.
func (c *ContractABI) DecodeOutput(function, data string) ([]any, error) {
	raw, err := decodeHex(data)
	if err != nil {
		return nil, fmt.Errorf("%s: return data: %w", function, err)
	}
	vals, err := c.abi.Unpack(function, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", function, err)
	}
	return vals, nil
}

// DecodeLog matches l to an event by its first topic and unpacks both the
// indexed and the data arguments.
func (c *ContractABI) DecodeLog(l Log) (*Event, error) {
	if len(l.Topics) == 0 {
		return nil, errors.New("log has no topics")
	}
	ev, err := c.abi.EventByID(common.HexToHash(l.Topics[0]))
	if err != nil {
		return nil, err
	}
	data, err := decodeHex(l.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: log data: %w", ev.Name, err)
	}

	args := make(map[string]any)
	if err := ev.Inputs.UnpackIntoMap(args, data); err != nil {
		return nil, fmt.Errorf("%s: %w", ev.Name, err)
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	topics := make([]common.Hash, 0, len(l.Topics)-1)
	for _, t := range l.Topics[1:] {
		topics = append(topics, common.HexToHash(t))
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, topics); err != nil {
		return nil, fmt.Errorf("%s: %w", ev.Name, err)
	}
	return &Event{Name: ev.Name, Args: args}, nil
}

// Decode fills the decoded fields of r. A reverted call carries revert data
// rather than a return value, so only its logs are decoded.
func (c *ContractABI) Decode(function string, r *Result) {
	if !r.Reverted {
		r.Returned, r.DecodeErr = c.DecodeOutput(function, r.Output)
	}
	r.Events = make([]*Event, len(r.Logs))
	for i, l := range r.Logs {
		if ev, err := c.DecodeLog(l); err == nil {
			r.Events[i] = ev
		}
	}
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

// convert builds a Go value of the type go-ethereum packs for t.
func convert(t abi.Type, v invocation.Value) (reflect.Value, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		n, err := toBig(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return intValue(t, n)

	case abi.BoolTy:
		if b, ok := v.(invocation.Bool); ok {
			return reflect.ValueOf(bool(b)), nil
		}
		switch text(v) {
		case "true":
			return reflect.ValueOf(true), nil
		case "false":
			return reflect.ValueOf(false), nil
		}
		return reflect.Value{}, fmt.Errorf("%s is not a boolean", invocation.Format(v))

	case abi.StringTy:
		return reflect.ValueOf(text(v)), nil

	case abi.AddressTy:
		s := text(v)
		if !common.IsHexAddress(s) {
			return reflect.Value{}, fmt.Errorf("%s is not an address", s)
		}
		return reflect.ValueOf(common.HexToAddress(s)), nil

	case abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) > t.Size {
			return reflect.Value{}, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out, nil

	case abi.SliceTy, abi.ArrayTy:
		arr, ok := v.(invocation.Array)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%s is not an array", invocation.Format(v))
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(arr), len(arr))
		} else {
			if len(arr) != t.Size {
				return reflect.Value{}, fmt.Errorf("expected %d elements, got %d", t.Size, len(arr))
			}
			out = reflect.New(t.GetType()).Elem()
		}
		for i, e := range arr {
			ev, err := convert(*t.Elem, e)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case abi.TupleTy:
		out := reflect.New(t.GetType()).Elem()
		for i, elem := range t.TupleElems {
			var field invocation.Value
			switch x := v.(type) {
			case invocation.Object:
				fv, ok := x.Get(t.TupleRawNames[i])
				if !ok {
					return reflect.Value{}, fmt.Errorf("missing field %q", t.TupleRawNames[i])
				}
				field = fv
			case invocation.Array:
				if len(x) != len(t.TupleElems) {
					return reflect.Value{}, fmt.Errorf("expected %d fields, got %d", len(t.TupleElems), len(x))
				}
				field = x[i]
			default:
				return reflect.Value{}, fmt.Errorf("%s is not a tuple", invocation.Format(v))
			}
			ev, err := convert(*elem, field)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %q: %w", t.TupleRawNames[i], err)
			}
			out.Field(i).Set(ev)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported type %s", t.String())
}

func intValue(t abi.Type, n *big.Int) (reflect.Value, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return reflect.Value{}, fmt.Errorf("%s out of range for uint%d", n, t.Size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return reflect.Value{}, fmt.Errorf("%s out of range for int%d", n, t.Size)
		}
	}

	typ := t.GetType()
	switch typ.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out := reflect.New(typ).Elem()
		out.SetInt(n.Int64())
		return out, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out := reflect.New(typ).Elem()
		out.SetUint(n.Uint64())
		return out, nil
	}
	return reflect.ValueOf(n), nil
}

func toBig(v invocation.Value) (*big.Int, error) {
	if n, ok := v.(invocation.Number); ok {
		return n.Big()
	}
	s := text(v)
	var (
		n  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		n, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%s is not an integer", invocation.Format(v))
	}
	return n, nil
}

// toBytes reads 0x-prefixed text as hex and anything else as UTF-8.
func toBytes(v invocation.Value) ([]byte, error) {
	s := text(v)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return hexutil.Decode("0x" + s[2:])
	}
	return []byte(s), nil
}

func text(v invocation.Value) string {
	switch x := v.(type) {
	case invocation.String:
		return string(x)
	case invocation.RawText:
		return string(x)
	}
	return invocation.Format(v)
}

// FormatValues renders decoded values as a comma separated list, with byte
// strings in hex.
func FormatValues(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []byte:
		return hexutil.Encode(x)
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return hexutil.Encode(b)
	}
	return fmt.Sprint(v)
}
