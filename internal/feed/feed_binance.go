package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"flowfield-go/internal/market"
	"flowfield-go/internal/metrics"
)

type binanceEnvelope struct {
	Stream string           `json:"stream"`
	Data   binanceKlineData `json:"data"`
}

type binanceKlineData struct {
	Kline binanceKline `json:"k"`
}

type binanceKline struct {
	CloseTime      int64  `json:"T"`
	Open           string `json:"o"`
	High           string `json:"h"`
	Low            string `json:"l"`
	Close          string `json:"c"`
	Volume         string `json:"v"`
	TakerBuyVolume string `json:"V"`
	Final          bool   `json:"x"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- Event) error {
	symbols := f.snapshotSymbols()
	if len(symbols) == 0 {
		return fmt.Errorf("binance feed requires at least one symbol")
	}

	streams := make([]string, len(symbols))
	for i, sym := range symbols {
		streams[i] = strings.ToLower(sym) + "@kline_1m"
	}

	url := fmt.Sprintf("wss://stream.binance.com:9443/stream?streams=%s", strings.Join(streams, "/"))
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeBinanceStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Strs("symbols", f.snapshotSymbols()).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env binanceEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}

		symbol := parseBinanceSymbol(env.Stream)
		obs, err := normalizeKline(env.Data.Kline)
		if err != nil {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("invalid kline from binance")
			continue
		}

		select {
		case out <- Event{Symbol: symbol, Observation: obs}:
			metrics.ObservationsTotal.WithLabelValues(symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// normalizeKline maps a binance kline onto an observation. Taker buy volume
// proxies the bid side; the remainder of total volume proxies the ask side.
func normalizeKline(k binanceKline) (market.Observation, error) {
	parse := func(name, raw string) (float64, error) {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s %q: %w", name, raw, err)
		}
		return v, nil
	}

	closePx, err := parse("close", k.Close)
	if err != nil {
		return market.Observation{}, err
	}
	openPx, err := parse("open", k.Open)
	if err != nil {
		return market.Observation{}, err
	}
	high, err := parse("high", k.High)
	if err != nil {
		return market.Observation{}, err
	}
	low, err := parse("low", k.Low)
	if err != nil {
		return market.Observation{}, err
	}
	volume, err := parse("volume", k.Volume)
	if err != nil {
		return market.Observation{}, err
	}
	takerBuy, err := parse("taker buy volume", k.TakerBuyVolume)
	if err != nil {
		return market.Observation{}, err
	}

	obs := market.Observation{
		Timestamp: k.CloseTime,
		Price:     closePx,
		Volume:    volume,
		BidVolume: market.Float64Ptr(takerBuy),
		AskVolume: market.Float64Ptr(math.Max(volume-takerBuy, 0)),
		High:      market.Float64Ptr(high),
		Low:       market.Float64Ptr(low),
		Open:      market.Float64Ptr(openPx),
		Close:     market.Float64Ptr(closePx),
	}
	return obs, obs.Validate()
}

func parseBinanceSymbol(stream string) string {
	if idx := strings.Index(stream, "@"); idx > 0 {
		return strings.ToUpper(stream[:idx])
	}
	return strings.ToUpper(stream)
}
