package views

import (
	"regexp"
	"strings"
)

// missingKeyPattern matches the executor error text/template and
// html/template produce for missingkey=error.
var missingKeyPattern = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// classifyExecError maps Go template execution errors onto typed errors.
func classifyExecError(err error) error {
	if err == nil {
		return nil
	}
	if m := missingKeyPattern.FindStringSubmatch(err.Error()); len(m) == 2 {
		return &UndefinedVariableError{Name: m[1], Cause: err}
	}
	return err
}

// missingKeyOption returns the "missingkey=..." option string, or "".
func missingKeyOption(opts map[string]any) string {
	v, ok := opts[CompileOptMissingKey].(string)
	if !ok || v == "" {
		return ""
	}
	switch strings.ToLower(v) {
	case MissingKeyDefault, MissingKeyZero, MissingKeyError:
		return CompileOptMissingKey + "=" + strings.ToLower(v)
	default:
		return ""
	}
}

// delimOptions returns the configured delimiters; empty means default.
func delimOptions(opts map[string]any) (string, string) {
	left, _ := opts[CompileOptLeftDelim].(string)
	right, _ := opts[CompileOptRightDelim].(string)
	return left, right
}

// funcOptions extracts a function map from compile options.
func funcOptions(opts map[string]any) map[string]any {
	switch v := opts[CompileOptFuncs].(type) {
	case map[string]any:
		return v
	default:
		return nil
	}
}

// cloneData guarantees templates never see a nil map.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
