package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadQuoteCSV reads a per-instrument quote-tick columnar source: one
// header-less row per tick, columns "ts_ns,bid,ask,bid_size,ask_size".
// This is the demo CLI's loader, not part of the producer core; the
// core only ever consumes an already-built Container.
func LoadQuoteCSV(path string) (QuoteColumns, error) {
	rows, err := readCSV(path)
	if err != nil {
		return QuoteColumns{}, err
	}

	out := QuoteColumns{
		Bid:     make([]string, 0, len(rows)),
		Ask:     make([]string, 0, len(rows)),
		BidSize: make([]string, 0, len(rows)),
		AskSize: make([]string, 0, len(rows)),
		TsNs:    make([]int64, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != 5 {
			return QuoteColumns{}, fmt.Errorf("data: %s row %d: expected 5 columns, got %d", path, i, len(row))
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return QuoteColumns{}, fmt.Errorf("data: %s row %d: parse ts_ns: %w", path, i, err)
		}
		out.TsNs = append(out.TsNs, ts)
		out.Bid = append(out.Bid, row[1])
		out.Ask = append(out.Ask, row[2])
		out.BidSize = append(out.BidSize, row[3])
		out.AskSize = append(out.AskSize, row[4])
	}
	return out, nil
}

// LoadTradeCSV reads a per-instrument trade-tick columnar source:
// columns "ts_ns,price,size,match_id,aggressor_side".
func LoadTradeCSV(path string) (TradeColumns, error) {
	rows, err := readCSV(path)
	if err != nil {
		return TradeColumns{}, err
	}

	out := TradeColumns{
		Price:         make([]string, 0, len(rows)),
		Size:          make([]string, 0, len(rows)),
		MatchId:       make([]string, 0, len(rows)),
		AggressorSide: make([]string, 0, len(rows)),
		TsNs:          make([]int64, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != 5 {
			return TradeColumns{}, fmt.Errorf("data: %s row %d: expected 5 columns, got %d", path, i, len(row))
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return TradeColumns{}, fmt.Errorf("data: %s row %d: parse ts_ns: %w", path, i, err)
		}
		out.TsNs = append(out.TsNs, ts)
		out.Price = append(out.Price, row[1])
		out.Size = append(out.Size, row[2])
		out.MatchId = append(out.MatchId, row[3])
		out.AggressorSide = append(out.AggressorSide, row[4])
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data: read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
