package memory

import (
	"fmt"
	"testing"
)

var benchSessionCounts = []int{1000, 10000, 100000}

// prefill creates n sessions spread over n/4 subjects.
func prefill(b *testing.B, s *SessionStore[int], n int) []string {
	b.Helper()
	tokens := make([]string, n)
	for i := range tokens {
		tok, err := s.Create(i / 4)
		if err != nil {
			b.Fatalf("Create failed: %v", err)
		}
		tokens[i] = tok
	}
	return tokens
}

func BenchmarkSessionStore_Create(b *testing.B) {
	for _, preload := range benchSessionCounts {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			s := NewSessionStore[int](WithSweepThreshold(0))
			prefill(b, s, preload)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := s.Create(i); err != nil {
					b.Fatalf("Create failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkSessionStore_Lookup(b *testing.B) {
	for _, count := range benchSessionCounts {
		b.Run(fmt.Sprintf("sessions_%d", count), func(b *testing.B) {
			s := NewSessionStore[int]()
			tokens := prefill(b, s, count)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, ok := s.Lookup(tokens[i%len(tokens)]); !ok {
					b.Fatal("Lookup missed")
				}
			}
		})
	}
}

func BenchmarkSessionStore_LookupParallel(b *testing.B) {
	s := NewSessionStore[int]()
	tokens := prefill(b, s, 10000)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			s.Lookup(tokens[i%len(tokens)])
			i++
		}
	})
}

func BenchmarkSessionStore_InvalidateAll(b *testing.B) {
	s := NewSessionStore[int]()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 4; j++ {
			if _, err := s.Create(i); err != nil {
				b.Fatalf("Create failed: %v", err)
			}
		}
		s.InvalidateAll(i)
	}
}
