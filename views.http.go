package views

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Handler returns an http.Handler that renders name for every request.
// Route wildcards and query values are available to the template under
// "params" and "query".
func Handler(m *Manager, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteView(w, r, m, name, nil, nil)
	})
}

// WriteView renders name and writes it as the response body. The content
// type is the one declared by the template's engine, or text/html. A render
// failure is written as a 500 carrying the normalized error message.
func WriteView(w http.ResponseWriter, r *http.Request, m *Manager, name string, data map[string]any, opts *CallOptions) {
	call := CallOptions{}
	if opts != nil {
		call = *opts
	}
	if call.Context == nil {
		call.Context = r.Context()
	}

	out, err := m.RenderString(r.Context(), name, requestContext(r, data), &call)
	if err != nil {
		m.logger.Warn(LogMsgResponseFailed,
			zap.String(LogFieldTemplate, name),
			zap.String(LogFieldPath, r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set(HeaderContentType, m.ContentType(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// requestContext copies data and adds the request's path and query values
// unless data already defines those keys.
func requestContext(r *http.Request, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out[ContextKeyParams]; !ok {
		out[ContextKeyParams] = pathParams(r)
	}
	if _, ok := out[ContextKeyQuery]; !ok {
		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
		out[ContextKeyQuery] = query
	}
	return out
}

// pathParams collects the values of the wildcards named in the route
// pattern that matched r.
func pathParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	pattern := r.Pattern
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			break
		}
		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "" && name != "$" {
			params[name] = r.PathValue(name)
		}
		pattern = pattern[start+end+1:]
	}
	return params
}
