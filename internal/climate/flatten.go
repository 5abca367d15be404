package climate

import (
	"fmt"
	"reflect"
)

// flatten converts the nested typed slices returned by the NetCDF reader
// ([]float32, [][][]int16, ...) into row-major float64 values plus the shape.
func flatten(v any) ([]float64, []int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, nil, fmt.Errorf("flatten: expected slice, got %T", v)
	}

	var shape []int
	for t := rv; t.Kind() == reflect.Slice; t = t.Index(0) {
		shape = append(shape, t.Len())
		if t.Len() == 0 {
			return nil, shape, nil
		}
	}

	size := 1
	for _, n := range shape {
		size *= n
	}
	out := make([]float64, 0, size)
	var walk func(reflect.Value, int) error
	walk = func(x reflect.Value, depth int) error {
		if depth < len(shape) {
			if x.Kind() != reflect.Slice || x.Len() != shape[depth] {
				return fmt.Errorf("flatten: ragged array at depth %d", depth)
			}
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		f, err := scalar(x)
		if err != nil {
			return err
		}
		out = append(out, f)
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func scalar(x reflect.Value) (float64, error) {
	switch x.Kind() {
	case reflect.Float32, reflect.Float64:
		return x.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(x.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(x.Uint()), nil
	default:
		return 0, fmt.Errorf("flatten: unsupported element kind %s", x.Kind())
	}
}

// toFloat reads a numeric attribute value, which may be a scalar or a
// one-element slice depending on how the file was written.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	}
	vals, _, err := flatten(v)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}
