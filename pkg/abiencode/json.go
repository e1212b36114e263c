package abiencode

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ToJSON renders a value tuple in its canonical dump form: strings and bools
// as-is, integers as decimal strings, addresses checksummed, byte data as
// 0x-prefixed hex, sequences as nested arrays.
func ToJSON(typeStrings []string, values []any) (json.RawMessage, error) {
	if len(typeStrings) != len(values) {
		return nil, errors.Errorf("expected %d values to render, got %d", len(typeStrings), len(values))
	}

	args, err := ParseArguments(typeStrings)
	if err != nil {
		return nil, err
	}
	rendered := make([]any, len(values))
	for i, v := range values {
		rv, err := renderValue(args[i].Type, v)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d does not match type %q", i, typeStrings[i])
		}
		rendered[i] = rv
	}

	raw, err := json.Marshal(rendered)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal value tuple")
	}
	return raw, nil
}

// FromJSON decodes one dumped value tuple. Numbers are preserved as
// json.Number so integers beyond float64 precision survive the round trip;
// Encode coerces them back to their declared types.
func FromJSON(typeStrings []string, raw json.RawMessage) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal value tuple")
	}
	if len(values) != len(typeStrings) {
		return nil, errors.Errorf("expected %d values, got %d", len(typeStrings), len(values))
	}
	for i, v := range values {
		args, err := ParseArguments(typeStrings[i : i+1])
		if err != nil {
			return nil, err
		}
		if _, err := prepare(args[0].Type, v); err != nil {
			return nil, errors.Wrapf(err, "value %d does not match type %q", i, typeStrings[i])
		}
	}
	return values, nil
}

func renderValue(t abi.Type, v any) (any, error) {
	pv, err := prepare(t, v)
	if err != nil {
		return nil, err
	}

	switch t.T {
	case abi.StringTy, abi.BoolTy:
		return pv, nil
	case abi.AddressTy:
		return pv.(common.Address).Hex(), nil
	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(pv)
		if err != nil {
			return nil, err
		}
		return n.String(), nil
	case abi.FixedBytesTy:
		rv := reflect.ValueOf(pv)
		raw := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(raw), rv)
		return hexutil.Encode(raw), nil
	case abi.BytesTy:
		return hexutil.Encode(pv.([]byte)), nil
	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(pv)
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := renderValue(*t.Elem, rv.Index(i).Interface())
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			out[i] = ev
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported abi type %s", t.String())
}
