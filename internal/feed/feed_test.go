package feed

import (
	"context"
	"testing"
	"time"

	"flowfield-go/internal/market"
	"flowfield-go/internal/util"
)

func TestWindowEviction(t *testing.T) {
	window := NewWindow(3)
	for i := 0; i < 5; i++ {
		window.Push(Event{Symbol: "BTCUSDT", Observation: market.Observation{
			Timestamp: int64(i), Price: 100 + float64(i), Volume: 1,
		}})
	}
	series := window.Snapshot("BTCUSDT")
	if len(series) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(series))
	}
	if series[0].Timestamp != 2 || series[2].Timestamp != 4 {
		t.Fatalf("expected oldest entries evicted, got %+v", series)
	}
	if got := window.Snapshot("UNKNOWN"); len(got) != 0 {
		t.Fatalf("unknown symbol should be empty, got %+v", got)
	}
}

func TestWindowSnapshotIsCopy(t *testing.T) {
	window := NewWindow(5)
	window.Push(Event{Symbol: "S", Observation: market.Observation{Timestamp: 1, Price: 100, Volume: 1}})
	series := window.Snapshot("S")
	series[0].Price = 42
	if window.Snapshot("S")[0].Price != 100 {
		t.Fatal("snapshot must not alias internal storage")
	}
}

func TestStubFeedEmits(t *testing.T) {
	log := util.NewLogger("error")
	f := New(ProviderStub, []string{"BTCUSDT", "ETHUSDT"}, log, WithEmitInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	out := make(chan Event, 64)
	go func() { _ = f.Run(ctx, out) }()

	seen := map[string]int{}
	for len(seen) < 2 {
		select {
		case ev := <-out:
			seen[ev.Symbol]++
			if err := ev.Observation.Validate(); err != nil {
				t.Fatalf("stub emitted invalid observation: %v", err)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for both symbols, saw %v", seen)
		}
	}
}

func TestReplayFeedDrainsSeries(t *testing.T) {
	log := util.NewLogger("error")
	series := map[string][]market.Observation{
		"S": {
			{Timestamp: 1, Price: 100, Volume: 1},
			{Timestamp: 2, Price: 101, Volume: 1},
		},
	}
	f := New(ProviderReplay, []string{"S"}, log,
		WithEmitInterval(time.Millisecond), WithReplaySeries(series))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out := make(chan Event, 8)

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, out) }()

	var got []market.Observation
	for {
		select {
		case ev := <-out:
			got = append(got, ev.Observation)
		case err := <-done:
			if err != nil {
				t.Fatalf("replay run: %v", err)
			}
			if len(got) != 2 || got[0].Timestamp != 1 || got[1].Timestamp != 2 {
				t.Fatalf("expected ordered replay of 2 observations, got %+v", got)
			}
			return
		case <-ctx.Done():
			t.Fatal("replay did not finish")
		}
	}
}

func TestNormalizeKline(t *testing.T) {
	obs, err := normalizeKline(binanceKline{
		CloseTime: 1700000000000,
		Open:      "100", High: "105", Low: "99", Close: "104",
		Volume: "50", TakerBuyVolume: "30",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if obs.Price != 104 || obs.Volume != 50 {
		t.Fatalf("unexpected observation: %+v", obs)
	}
	if !obs.HasBook() || *obs.BidVolume != 30 || *obs.AskVolume != 20 {
		t.Fatalf("expected taker split 30/20, got %+v", obs)
	}
	if !obs.HasRange() || *obs.High != 105 || *obs.Low != 99 {
		t.Fatalf("expected range 105/99, got %+v", obs)
	}

	if _, err := normalizeKline(binanceKline{Close: "abc"}); err == nil {
		t.Fatal("expected error for malformed kline")
	}
}

func TestParseBinanceSymbol(t *testing.T) {
	if got := parseBinanceSymbol("btcusdt@kline_1m"); got != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %s", got)
	}
	if got := parseBinanceSymbol("ethusdt"); got != "ETHUSDT" {
		t.Fatalf("expected ETHUSDT, got %s", got)
	}
}
