// Package abiencode packs value tuples with Solidity ABI semantics and
// converts them to and from their JSON dump rendering.
//
// Values arrive either as native Go types or as the loose forms produced by
// decoding JSON (strings, json.Number, bool, nested []any); both are coerced
// to the exact Go representation the ABI packer expects for the declared
// Solidity type.
package abiencode

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// Encode ABI-encodes one tuple of values against the given Solidity type
// strings, producing the same bytes as Solidity's abi.encode.
func Encode(typeStrings []string, values []any) ([]byte, error) {
	if len(typeStrings) != len(values) {
		return nil, errors.Errorf("expected %d values to encode, got %d", len(typeStrings), len(values))
	}

	args, err := ParseArguments(typeStrings)
	if err != nil {
		return nil, err
	}
	prepared := make([]any, len(values))
	for i, v := range values {
		pv, err := prepare(args[i].Type, v)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d does not match type %q", i, typeStrings[i])
		}
		prepared[i] = pv
	}

	packed, err := args.Pack(prepared...)
	if err != nil {
		return nil, errors.Wrap(err, "abi packing failed")
	}
	return packed, nil
}

// ParseArguments resolves Solidity type strings into an abi.Arguments list.
func ParseArguments(typeStrings []string) (abi.Arguments, error) {
	args := make(abi.Arguments, len(typeStrings))
	for i, ts := range typeStrings {
		typ, err := abi.NewType(ts, "", nil)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid abi type %q", ts)
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args, nil
}

// prepare coerces a loosely typed value into the exact Go value the abi
// package packs for the given type.
func prepare(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("expected string, got %T", v)
		}
		return s, nil

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case abi.AddressTy:
		return prepareAddress(v)

	case abi.UintTy, abi.IntTy:
		return prepareInteger(t, v)

	case abi.FixedBytesTy:
		return prepareFixedBytes(t, v)

	case abi.BytesTy:
		return prepareBytes(v)

	case abi.SliceTy, abi.ArrayTy:
		return prepareSequence(t, v)
	}
	return nil, errors.Errorf("unsupported abi type %s", t.String())
}

func prepareAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case string:
		if !common.IsHexAddress(x) {
			return common.Address{}, errors.Errorf("invalid address %q", x)
		}
		return common.HexToAddress(x), nil
	case [20]byte:
		return common.Address(x), nil
	}
	return common.Address{}, errors.Errorf("expected address, got %T", v)
}

func prepareInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}
	if err := checkIntegerRange(t, n); err != nil {
		return nil, err
	}

	// The abi packer requires exact-width Go integers up to and including
	// 64 bits and *big.Int everywhere else.
	if t.T == abi.UintTy {
		switch t.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	}
	switch t.Size {
	case 8:
		return int8(n.Int64()), nil
	case 16:
		return int16(n.Int64()), nil
	case 32:
		return int32(n.Int64()), nil
	case 64:
		return n.Int64(), nil
	}
	return n, nil
}

func checkIntegerRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return errors.Errorf("value %s out of range for uint%d", n, t.Size)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	max := new(big.Int).Sub(limit, big.NewInt(1))
	min := new(big.Int).Neg(limit)
	if n.Cmp(min) < 0 || n.Cmp(max) > 0 {
		return errors.Errorf("value %s out of range for int%d", n, t.Size)
	}
	return nil
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case json.Number:
		n, ok := new(big.Int).SetString(x.String(), 10)
		if !ok {
			return nil, errors.Errorf("invalid integer %q", x.String())
		}
		return n, nil
	case string:
		base := 10
		digits := x
		if strings.HasPrefix(x, "0x") || strings.HasPrefix(x, "0X") {
			base = 16
			digits = x[2:]
		}
		n, ok := new(big.Int).SetString(digits, base)
		if !ok {
			return nil, errors.Errorf("invalid integer %q", x)
		}
		return n, nil
	case float64:
		n, acc := big.NewFloat(x).Int(nil)
		if acc != big.Exact {
			return nil, errors.Errorf("non-integral number %v", x)
		}
		return n, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, errors.Errorf("expected integer, got %T", v)
}

func prepareFixedBytes(t abi.Type, v any) (any, error) {
	raw, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	if len(raw) != t.Size {
		return nil, errors.Errorf("expected %d bytes, got %d", t.Size, len(raw))
	}
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(raw))
	return arr.Interface(), nil
}

func prepareBytes(v any) ([]byte, error) {
	raw, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case common.Hash:
		return x.Bytes(), nil
	case [32]byte:
		return append([]byte(nil), x[:]...), nil
	case string:
		raw, err := hexutil.Decode(x)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hex string %q", x)
		}
		return raw, nil
	}

	// Other fixed-size byte arrays reach us through reflection.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		raw := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(raw), rv)
		return raw, nil
	}
	return nil, errors.Errorf("expected byte data, got %T", v)
}

func prepareSequence(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Errorf("expected sequence, got %T", v)
	}
	if t.T == abi.ArrayTy && rv.Len() != t.Size {
		return nil, errors.Errorf("expected %d elements, got %d", t.Size, rv.Len())
	}

	out := reflect.New(t.GetType()).Elem()
	if t.T == abi.SliceTy {
		out = reflect.MakeSlice(t.GetType(), rv.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		pv, err := prepare(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out.Index(i).Set(reflect.ValueOf(pv))
	}
	return out.Interface(), nil
}
