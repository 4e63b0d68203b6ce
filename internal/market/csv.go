package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads observations from a CSV file. The first row must be a header;
// recognized columns are timestamp, price, volume, bid_volume, ask_volume,
// high, low, open, close. Optional columns may be missing entirely or left
// blank per row.
func LoadCSV(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses observations from an open CSV stream. See LoadCSV.
func ReadCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "price", "volume"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q", required)
		}
	}

	var observations []Observation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		ts, err := strconv.ParseInt(field(record, cols, "timestamp"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad timestamp: %w", line, err)
		}
		price, err := strconv.ParseFloat(field(record, cols, "price"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad price: %w", line, err)
		}
		volume, err := strconv.ParseFloat(field(record, cols, "volume"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad volume: %w", line, err)
		}

		obs := Observation{Timestamp: ts, Price: price, Volume: volume}
		for name, dst := range map[string]**float64{
			"bid_volume": &obs.BidVolume, "ask_volume": &obs.AskVolume,
			"high": &obs.High, "low": &obs.Low, "open": &obs.Open, "close": &obs.Close,
		} {
			raw := field(record, cols, name)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad %s: %w", line, name, err)
			}
			*dst = &v
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
