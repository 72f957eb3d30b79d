package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Helper names available to the built-in Go template engines.
const (
	FuncNameUpper      = "upper"
	FuncNameLower      = "lower"
	FuncNameTrim       = "trim"
	FuncNameTrimPrefix = "trimPrefix"
	FuncNameTrimSuffix = "trimSuffix"
	FuncNameHasPrefix  = "hasPrefix"
	FuncNameHasSuffix  = "hasSuffix"
	FuncNameContains   = "contains"
	FuncNameReplace    = "replace"
	FuncNameSplit      = "split"
	FuncNameJoin       = "join"
	FuncNameTruncate   = "truncate"
	FuncNameDefault    = "default"
	FuncNameCoalesce   = "coalesce"
	FuncNameToString   = "toString"
	FuncNameToInt      = "toInt"
	FuncNameIsEmpty    = "empty"
	FuncNameFirst      = "first"
	FuncNameLast       = "last"
	FuncNameKeys       = "keys"
	FuncNameFormatDate = "formatDate"
	FuncNameNow        = "now"
)

const truncateEllipsis = "..."

// Funcs returns a fresh helper map. Helpers that take a subject accept it as
// the last argument so they compose in pipelines: {{.name | default "guest"}}.
func Funcs() map[string]any {
	return map[string]any{
		FuncNameUpper:      func(s any) string { return strings.ToUpper(ToString(s)) },
		FuncNameLower:      func(s any) string { return strings.ToLower(ToString(s)) },
		FuncNameTrim:       func(s any) string { return strings.TrimSpace(ToString(s)) },
		FuncNameTrimPrefix: func(prefix string, s any) string { return strings.TrimPrefix(ToString(s), prefix) },
		FuncNameTrimSuffix: func(suffix string, s any) string { return strings.TrimSuffix(ToString(s), suffix) },
		FuncNameHasPrefix:  func(prefix string, s any) bool { return strings.HasPrefix(ToString(s), prefix) },
		FuncNameHasSuffix:  func(suffix string, s any) bool { return strings.HasSuffix(ToString(s), suffix) },
		FuncNameContains:   func(sub string, s any) bool { return strings.Contains(ToString(s), sub) },
		FuncNameReplace:    func(old, repl string, s any) string { return strings.ReplaceAll(ToString(s), old, repl) },
		FuncNameSplit:      func(sep string, s any) []string { return strings.Split(ToString(s), sep) },
		FuncNameJoin:       join,
		FuncNameTruncate:   truncate,
		FuncNameDefault:    defaultValue,
		FuncNameCoalesce:   coalesce,
		FuncNameToString:   ToString,
		FuncNameToInt:      toInt,
		FuncNameIsEmpty:    IsEmpty,
		FuncNameFirst:      first,
		FuncNameLast:       last,
		FuncNameKeys:       keys,
		FuncNameFormatDate: formatDate,
		FuncNameNow:        time.Now,
	}
}

// ToString renders v the way a template would print it; nil is "".
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// IsEmpty reports whether v is nil, a zero-length string, slice or map, or a
// zero number or false.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func defaultValue(fallback, v any) any {
	if IsEmpty(v) {
		return fallback
	}
	return v
}

func coalesce(values ...any) any {
	for _, v := range values {
		if !IsEmpty(v) {
			return v
		}
	}
	return nil
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%s: cannot convert %q", FuncNameToInt, val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: cannot convert %T", FuncNameToInt, v)
	}
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(n int, s any) string {
	str := ToString(s)
	if n < 0 || utf8.RuneCountInString(str) <= n {
		return str
	}
	if n <= len(truncateEllipsis) {
		return string([]rune(str)[:n])
	}
	return string([]rune(str)[:n-len(truncateEllipsis)]) + truncateEllipsis
}

func join(sep string, list any) (string, error) {
	items, err := sliceOf(FuncNameJoin, list)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = ToString(item)
	}
	return strings.Join(parts, sep), nil
}

func first(list any) (any, error) {
	items, err := sliceOf(FuncNameFirst, list)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func last(list any) (any, error) {
	items, err := sliceOf(FuncNameLast, list)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[len(items)-1], nil
}

// keys returns the sorted string keys of a map.
func keys(m any) ([]string, error) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%s: expected a map, got %T", FuncNameKeys, m)
	}
	out := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		out = append(out, ToString(k.Interface()))
	}
	sort.Strings(out)
	return out, nil
}

// formatDate formats t with a Go layout. t may be a time.Time or an
// RFC 3339 string.
func formatDate(layout string, t any) (string, error) {
	switch val := t.(type) {
	case time.Time:
		return val.Format(layout), nil
	case *time.Time:
		if val == nil {
			return "", nil
		}
		return val.Format(layout), nil
	case string:
		parsed, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return "", fmt.Errorf("%s: %w", FuncNameFormatDate, err)
		}
		return parsed.Format(layout), nil
	default:
		return "", fmt.Errorf("%s: expected a time, got %T", FuncNameFormatDate, t)
	}
}

func sliceOf(fn string, list any) ([]any, error) {
	if list == nil {
		return nil, nil
	}
	if items, ok := list.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%s: expected a list, got %T", fn, list)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
