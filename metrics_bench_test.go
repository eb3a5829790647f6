package goConsole

import (
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/pipeline"
)

func benchObserver(cfg MetricsConfig) engineObserver {
	return engineObserver{e: &Engine{metrics: NewMetrics(cfg)}}
}

// requestMix cycles through the outcomes a busy console sees.
func requestMix() []pipeline.Event {
	return []pipeline.Event{
		{Method: "GET", Path: "/products", Attempt: 1, Status: 200, Latency: 4 * time.Millisecond},
		{Method: "GET", Path: "/products", Attempt: 2, Err: fmt.Errorf("%w: dial", ErrUnreachable), Latency: 30 * time.Millisecond},
		{Method: "PATCH", Path: "/text", Attempt: 1, Err: ErrTimeout, Latency: 600 * time.Millisecond},
		{Method: "DELETE", Path: "/products/1", Attempt: 1, Status: 401, Err: ErrUnauthorized, Latency: 8 * time.Millisecond},
	}
}

func BenchmarkObserveRequestMix(b *testing.B) {
	o := benchObserver(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	events := requestMix()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		o.ObserveRequest(events[i%len(events)])
	}
}

func BenchmarkObserveRequestDisabled(b *testing.B) {
	o := benchObserver(MetricsConfig{})
	events := requestMix()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		o.ObserveRequest(events[i%len(events)])
	}
}

func BenchmarkObserveRequestParallel(b *testing.B) {
	o := benchObserver(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	events := requestMix()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			o.ObserveRequest(events[i%len(events)])
			i++
		}
	})
}
