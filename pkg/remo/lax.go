package remo

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// laxFloat decodes a JSON number or a string holding a finite number.
type laxFloat float64

func (f *laxFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return &json.UnmarshalTypeError{Value: "string", Type: reflect.TypeOf(float64(0))}
		}
		*f = laxFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = laxFloat(v)
	return nil
}

// laxBool decodes a JSON boolean, the numbers 0 and 1, or one of the usual
// string spellings (true/false, yes/no, on/off, 1/0, t/f, y/n).
type laxBool bool

var boolStrings = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

func (b *laxBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case bool:
		*b = laxBool(v)
		return nil
	case float64:
		if v == 0 || v == 1 {
			*b = v == 1
			return nil
		}
		return &json.UnmarshalTypeError{Value: "number " + strconv.FormatFloat(v, 'g', -1, 64), Type: reflect.TypeOf(false)}
	case string:
		if parsed, ok := boolStrings[strings.ToLower(strings.TrimSpace(v))]; ok {
			*b = laxBool(parsed)
			return nil
		}
		return &json.UnmarshalTypeError{Value: "string", Type: reflect.TypeOf(false)}
	}
	return &json.UnmarshalTypeError{Value: jsonKind(data), Type: reflect.TypeOf(false)}
}

func jsonKind(data []byte) string {
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	}
	return "value"
}
