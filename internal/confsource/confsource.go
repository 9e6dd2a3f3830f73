// Package confsource implements the hierarchical, case-insensitive string
// configuration lookup the engine's surrounding services depend on: each
// lookup returns a raw string or a caller-supplied default, with an
// environment overlay that joins path segments with "_" and upshifts them.
package confsource

import (
	"os"
	"strings"
)

// Source resolves a dotted path to a raw string, falling back to def when
// unset.
type Source interface {
	Get(path []string, def string) string
}

// MapSource is an in-memory, case-insensitive hierarchical source, keyed by
// "_"-joined, lowercased path segments.
type MapSource struct {
	values map[string]string
}

// NewMapSource builds a MapSource from dot-separated keys ("store.dsn").
func NewMapSource(entries map[string]string) *MapSource {
	m := &MapSource{values: make(map[string]string, len(entries))}
	for k, v := range entries {
		m.values[normalizeKey(strings.Split(k, "."))] = v
	}
	return m
}

func (m *MapSource) Get(path []string, def string) string {
	if v, ok := m.values[normalizeKey(path)]; ok {
		return v
	}
	return def
}

// EnvSource resolves a path against process environment variables, each
// segment joined by "_" and upshifted, optionally under a fixed prefix
// (e.g. prefix "KEEPUP" + path ["store", "dsn"] -> "KEEPUP_STORE_DSN").
type EnvSource struct {
	prefix string
}

// NewEnvSource builds an EnvSource. An empty prefix omits the leading
// segment entirely.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

func (e *EnvSource) Get(path []string, def string) string {
	segments := path
	if e.prefix != "" {
		segments = append([]string{e.prefix}, path...)
	}
	key := strings.ToUpper(strings.Join(segments, "_"))
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Chain tries each Source in order, returning the first value found that
// differs from def, or def if none resolve the path (child sources take
// precedence over later, more general ones — pass the most specific first).
type Chain []Source

func (c Chain) Get(path []string, def string) string {
	for _, src := range c {
		if v := src.Get(path, def); v != def {
			return v
		}
	}
	return def
}

func normalizeKey(path []string) string {
	segments := make([]string, len(path))
	for i, s := range path {
		segments[i] = strings.ToLower(s)
	}
	return strings.Join(segments, "_")
}
