package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

// ============================================================
// TableFormatter
// ============================================================

func TestTableFormatter_Slice(t *testing.T) {
	users := []*sampleUser{
		{ID: 1, Username: "alice", Email: "alice@example.com", Hash: []byte("h")},
		nil,
		{ID: 2, Username: "bob", Email: "bob@example.com"},
	}

	tests := []struct {
		name string
		f    *TableFormatter
		want string
	}{
		{
			name: "narrow",
			f:    &TableFormatter{},
			want: "ID  USERNAME\n1   alice\n2   bob\n",
		},
		{
			name: "wide",
			f:    &TableFormatter{Wide: true},
			want: "ID  USERNAME  EMAIL\n1   alice     alice@example.com\n2   bob       bob@example.com\n",
		},
		{
			name: "no headers",
			f:    &TableFormatter{NoHeaders: true},
			want: "1  alice\n2  bob\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.f.Format(&buf, users); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Format() =\n%q\nwant\n%q", buf.String(), tt.want)
			}
		})
	}
}

func TestTableFormatter_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, []sampleUser{}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "ID  USERNAME\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	data := map[string]any{
		"session.ttl":       "1h0m0s",
		"server.http.addr":  "127.0.0.1:8080",
		"static.restricted": []string{"user-area", "profile"},
		"storage.in_memory": false,
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	wantPrefixes := []string{"KEY", "server.http.addr", "session.ttl", "static.restricted", "storage.in_memory"}
	for i, p := range wantPrefixes {
		if !strings.HasPrefix(lines[i], p) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], p)
		}
	}
	if !strings.Contains(lines[3], "user-area,profile") {
		t.Errorf("slice cell = %q", lines[3])
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, sampleUser{ID: 7, Username: "carol"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "FIELD     VALUE\nid        7\nusername  carol\nemail     -\n"
	if buf.String() != want {
		t.Errorf("Format() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestTableFormatter_Table(t *testing.T) {
	table := Table{Headers: []string{"NAME", "VERSION"}}
	table.AddRow("rawhttpd", "1.0.0")

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "NAME      VERSION\nrawhttpd  1.0.0\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("Format() = %q", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, nil); err != nil || buf.Len() != 0 {
		t.Errorf("Format(nil) = %q, %v", buf.String(), err)
	}
}

// ============================================================
// Cells
// ============================================================

func TestFormatValue(t *testing.T) {
	var nilPtr *int
	ts := time.Date(2024, 3, 9, 8, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "x", "x"},
		{"empty string", "", "-"},
		{"int", 42, "42"},
		{"float", 0.25, "0.25"},
		{"bool", true, "true"},
		{"duration", 90 * time.Second, "1m30s"},
		{"time", ts, "2024-03-09 08:04"},
		{"zero time", time.Time{}, "-"},
		{"nil pointer", nilPtr, ""},
		{"empty slice", []string{}, "-"},
		{"map", map[string]int{"a": 1}, "{1 keys}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := formatValue(reflect.Value{}); got != "" {
		t.Errorf("formatValue(invalid) = %q", got)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"username":  "username",
		"CreatedAt": "Created_At",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
