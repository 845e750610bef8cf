package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey is returned when a run lacks a config or summary key.
	ErrMissingKey = errors.New("missing key")
	// ErrUnexpectedValue is returned when a key holds a value of the wrong type.
	ErrUnexpectedValue = errors.New("unexpected value")
)

// Run is one tracked training run. Config values are unwrapped from the
// {"value": ...} envelopes the tracking service stores them in.
type Run struct {
	ID      string
	Name    string
	State   string
	Tags    []string
	Config  map[string]any
	Summary map[string]any
}

// lookup finds key in m, first verbatim and then as a slash separated path
// into nested maps ("test/f1" matches {"test": {"f1": ...}}).
func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	parts := strings.Split(key, "/")
	if len(parts) < 2 {
		return nil, false
	}
	var cur any = m
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// ConfigString returns a string config value.
func (r Run) ConfigString(key string) (string, error) {
	v, ok := lookup(r.Config, key)
	if !ok || v == nil {
		return "", fmt.Errorf("run %s: config %q: %w", r.Name, key, ErrMissingKey)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("run %s: config %q is %T: %w", r.Name, key, v, ErrUnexpectedValue)
	}
	return s, nil
}

// SummaryFloat returns a numeric summary metric.
func (r Run) SummaryFloat(key string) (float64, error) {
	v, ok := lookup(r.Summary, key)
	if !ok || v == nil {
		return 0, fmt.Errorf("run %s: summary %q: %w", r.Name, key, ErrMissingKey)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("run %s: summary %q: %v: %w", r.Name, key, err, ErrUnexpectedValue)
		}
		return f, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("run %s: summary %q is %T: %w", r.Name, key, v, ErrUnexpectedValue)
}

// unwrapConfig strips the {"value": v, "desc": ...} envelope from each config
// entry and drops internal keys.
func unwrapConfig(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, "_") {
			continue
		}
		if env, ok := v.(map[string]any); ok {
			if inner, ok := env["value"]; ok {
				out[k] = inner
				continue
			}
		}
		out[k] = v
	}
	return out
}

// decodeJSONString decodes a GraphQL JSONString field; empty or null strings
// yield an empty map.
func decodeJSONString(s string) (map[string]any, error) {
	if s == "" || s == "null" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
