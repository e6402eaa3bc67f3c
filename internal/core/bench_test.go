package core

import (
	"fmt"
	"testing"
)

func benchmarkPresenceBroadcast(b *testing.B, sessions int) {
	r := NewRegistry()
	bc := NewBroadcaster(r, testLogger())

	for i := range sessions {
		s := NewSession(fmt.Sprintf("c%d", i), Identity{
			UserID:   fmt.Sprintf("u%d", i),
			Username: fmt.Sprintf("user%d", i),
		})
		if err := r.Register(s); err != nil {
			b.Fatalf("register: %v", err)
		}
		// Drain events to avoid the buffers filling up mid-benchmark.
		go func(sess *Session) {
			for range sess.Events {
			}
		}(s)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bc.Broadcast()
	}
}

func BenchmarkPresenceBroadcast_10(b *testing.B)  { benchmarkPresenceBroadcast(b, 10) }
func BenchmarkPresenceBroadcast_100(b *testing.B) { benchmarkPresenceBroadcast(b, 100) }
func BenchmarkPresenceBroadcast_500(b *testing.B) { benchmarkPresenceBroadcast(b, 500) }
