// Package confloader provides configuration loading mechanism.
package confloader

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider, use Read() instead")

// mapProvider is a simple koanf provider that loads configuration from a map.
// Dotted keys ("server.http.addr") are expanded into nested maps.
//
// koanf uses Read() for map-based providers.
type mapProvider map[string]any

// ReadBytes returns an error as map provider doesn't support byte serialization.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the configuration map.
func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}

// envKey is a leaf configuration key reachable from the environment.
type envKey struct {
	key  string
	list bool // comma-separated value
}

// envKeyIndex maps the underscore form of every leaf koanf key in target to
// the dotted key, so "server_http_max_connections" resolves to
// "server.http.max_connections".
func envKeyIndex(target any) map[string]envKey {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	index := make(map[string]envKey)
	collectKeys(t, "", index)
	return index
}

func collectKeys(t reflect.Type, prefix string, index map[string]envKey) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, key, index)
			continue
		}
		index[strings.ReplaceAll(key, ".", "_")] = envKey{
			key:  key,
			list: f.Type.Kind() == reflect.Slice,
		}
	}
}

// Values returns the leaf values of a koanf-tagged struct keyed by dotted
// path. Durations are rendered as strings.
func Values(target any) map[string]any {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	out := make(map[string]any)
	collectValues(v, "", out)
	return out
}

func collectValues(v reflect.Value, prefix string, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectValues(v.Field(i), key, out)
			continue
		}
		val := v.Field(i).Interface()
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		out[key] = val
	}
}

// splitList turns "a, b,,c" into [a b c].
func splitList(value string) []any {
	parts := strings.Split(value, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
