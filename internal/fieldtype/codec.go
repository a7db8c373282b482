package fieldtype

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxStringLength bounds STRING values and the VARCHAR column behind them.
const MaxStringLength = 255

// Client-facing codec messages.
const (
	MsgRequired       = "This field is required."
	MsgNotNull        = "This field may not be null."
	MsgInvalidString  = "Not a valid string."
	MsgStringTooLong  = "Ensure this field has no more than 255 characters."
	MsgInvalidInteger = "A valid integer is required."
	MsgInvalidBoolean = "Must be a valid boolean."
	MsgUnknownField   = "Unknown field."
)

var (
	trueValues  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true}
	falseValues = map[string]bool{"false": true, "f": true, "no": true, "n": true, "off": true, "0": true}
)

func decodeString(v any) (any, string) {
	var s string
	switch x := v.(type) {
	case nil:
		return nil, MsgNotNull
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	default:
		return nil, MsgInvalidString
	}
	if utf8.RuneCountInString(s) > MaxStringLength {
		return nil, MsgStringTooLong
	}
	return s, ""
}

func decodeNumber(v any) (any, string) {
	switch x := v.(type) {
	case nil:
		return nil, ""
	case int64:
		return x, ""
	case int:
		return int64(x), ""
	case float64:
		if n, ok := integralFloat(x); ok {
			return n, ""
		}
	case json.Number:
		if n, ok := parseInteger(x.String()); ok {
			return n, ""
		}
	case string:
		if n, ok := parseInteger(x); ok {
			return n, ""
		}
	}
	return nil, MsgInvalidInteger
}

// parseInteger accepts integers and integral decimals ("12", " 12 ", "12.0").
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return integralFloat(f)
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func decodeBoolean(v any) (any, string) {
	switch x := v.(type) {
	case nil:
		return nil, MsgNotNull
	case bool:
		return x, ""
	case json.Number:
		return boolFromString(x.String())
	case string:
		return boolFromString(x)
	case float64:
		if x == 0 || x == 1 {
			return x == 1, ""
		}
	case int64:
		if x == 0 || x == 1 {
			return x == 1, ""
		}
	case int:
		if x == 0 || x == 1 {
			return x == 1, ""
		}
	}
	return nil, MsgInvalidBoolean
}

func boolFromString(s string) (any, string) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case trueValues[s]:
		return true, ""
	case falseValues[s]:
		return false, ""
	}
	return nil, MsgInvalidBoolean
}

func encodeString(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func encodeNumber(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		if n, ok := integralFloat(x); ok {
			return n, nil
		}
	case []byte:
		if n, ok := parseInteger(string(x)); ok {
			return n, nil
		}
	case string:
		if n, ok := parseInteger(x); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("cannot encode %T as NUMBER", v)
}

func encodeBoolean(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case []byte:
		if b, msg := boolFromString(string(x)); msg == "" {
			return b, nil
		}
	case string:
		if b, msg := boolFromString(x); msg == "" {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot encode %T as BOOLEAN", v)
}

// EncodeKey converts a scanned primary key to int64.
func EncodeKey(v any) (int64, error) {
	n, err := encodeNumber(v)
	if err != nil {
		return 0, fmt.Errorf("primary key: %w", err)
	}
	id, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("primary key is null")
	}
	return id, nil
}
