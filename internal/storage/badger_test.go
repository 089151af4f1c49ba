package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestEngine(t *testing.T) *BadgerEngine {
	t.Helper()
	engine, err := NewBadgerEngine(InMemoryKVConfig(), slog.Default())
	if err != nil {
		t.Fatalf("NewBadgerEngine: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := []byte("test-key")
		value := []byte("test-value")

		if err := engine.Set(ctx, key, value); err != nil {
			t.Fatal(err)
		}

		got, err := engine.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}

		if string(got) != string(value) {
			t.Errorf("expected %s, got %s", value, got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("non-existent"))
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		key := []byte("delete-key")

		if err := engine.Set(ctx, key, []byte("v")); err != nil {
			t.Fatal(err)
		}
		if err := engine.Delete(ctx, key); err != nil {
			t.Fatal(err)
		}

		_, err := engine.Get(ctx, key)
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
		}
	})
}

func TestBadgerEngine_Scan(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	for _, k := range []string{"a/1", "a/2", "a/3", "b/1"} {
		if err := engine.Set(ctx, []byte(k), []byte("v-"+k)); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("Scan with prefix", func(t *testing.T) {
		var keys []string
		err := engine.Scan(ctx, []byte("a/"), func(key, _ []byte) bool {
			keys = append(keys, string(key))
			return true
		})
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(keys, ",") != "a/1,a/2,a/3" {
			t.Errorf("keys = %v", keys)
		}
	})

	t.Run("Scan with early stop", func(t *testing.T) {
		count := 0
		err := engine.Scan(ctx, []byte("a/"), func(_, _ []byte) bool {
			count++
			return count < 2
		})
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("Scan with cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := engine.Scan(cctx, []byte("a/"), func(_, _ []byte) bool { return true })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestBadgerEngine_NextSequence(t *testing.T) {
	engine := newTestEngine(t)

	seen := make(map[uint64]bool)
	var prev uint64
	for i := 0; i < 200; i++ {
		n, err := engine.NextSequence("seq/test")
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			t.Fatal("sequence returned 0")
		}
		if n <= prev {
			t.Fatalf("sequence not increasing: %d after %d", n, prev)
		}
		if seen[n] {
			t.Fatalf("duplicate %d", n)
		}
		seen[n] = true
		prev = n
	}
}

func TestBadgerEngine_NextSequenceConcurrent(t *testing.T) {
	engine := newTestEngine(t)

	var (
		mu   sync.Mutex
		seen = make(map[uint64]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				n, err := engine.NextSequence("seq/c")
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				if seen[n] {
					t.Errorf("duplicate %d", n)
				}
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 400 {
		t.Errorf("distinct values = %d, want 400", len(seen))
	}
}

func TestBadgerEngine_GCInMemory(t *testing.T) {
	engine := newTestEngine(t)

	if _, err := engine.GC(context.Background()); err != nil {
		t.Fatalf("GC: %v", err)
	}
	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.LastGCTime == 0 {
		t.Error("LastGCTime not recorded")
	}
}

func TestBadgerEngine_OnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultKVConfig(dir)
	cfg.Badger.GCInterval = time.Hour
	ctx := context.Background()

	engine, err := NewBadgerEngine(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Set(ctx, []byte("k"), []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	first, _ := engine.NextSequence("seq/disk")
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen: data and sequence progress survive.
	engine, err = NewBadgerEngine(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	got, err := engine.Get(ctx, []byte("k"))
	if err != nil || string(got) != "persisted" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
	next, err := engine.NextSequence("seq/disk")
	if err != nil {
		t.Fatal(err)
	}
	if next <= first {
		t.Errorf("sequence after reopen = %d, want > %d", next, first)
	}
}

func TestBadgerEngine_Close(t *testing.T) {
	engine, err := NewBadgerEngine(InMemoryKVConfig(), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := engine.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if _, err := engine.Get(context.Background(), []byte("k")); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if _, err := engine.NextSequence("s"); !errors.Is(err, ErrClosed) {
		t.Errorf("NextSequence after Close = %v, want ErrClosed", err)
	}
}

func TestNewBadgerEngine_RequiresDir(t *testing.T) {
	if _, err := NewBadgerEngine(KVConfig{}, nil); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestBadgerEngine_Encrypted(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultKVConfig(dir)
	cfg.Badger.GCInterval = 0
	cfg.EncryptionKey = []byte("0123456789abcdef0123456789abcdef")
	ctx := context.Background()

	engine, err := NewBadgerEngine(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Set(ctx, []byte("k"), []byte("sealed")); err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	engine, err = NewBadgerEngine(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	got, err := engine.Get(ctx, []byte("k"))
	if err != nil || string(got) != "sealed" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
}

func TestNewBadgerEngine_BadKeyLength(t *testing.T) {
	cfg := InMemoryKVConfig()
	cfg.EncryptionKey = []byte("short")
	if _, err := NewBadgerEngine(cfg, nil); err == nil {
		t.Fatal("expected error for 5-byte key")
	}
}

func TestBadgerEngine_RegisterMetrics(t *testing.T) {
	engine := newTestEngine(t)
	registry := prometheus.NewRegistry()
	engine.RegisterMetrics(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"rawhttpd_badger_lsm_size_bytes",
		"rawhttpd_badger_value_log_size_bytes",
		"rawhttpd_badger_total_size_bytes",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
