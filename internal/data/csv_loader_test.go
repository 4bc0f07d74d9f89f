package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadQuoteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	body := "100,1.0000,1.0010,1000,1000\n200,1.0005,1.0015,500,500\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	qc, err := LoadQuoteCSV(path)
	if err != nil {
		t.Fatalf("LoadQuoteCSV: %v", err)
	}
	if qc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", qc.Len())
	}
	if qc.TsNs[0] != 100 || qc.TsNs[1] != 200 {
		t.Errorf("TsNs = %v, want [100 200]", qc.TsNs)
	}
	if qc.Bid[0] != "1.0000" || qc.Ask[1] != "1.0015" {
		t.Errorf("unexpected column values: %+v", qc)
	}
}

func TestLoadQuoteCSV_BadRowWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	if err := os.WriteFile(path, []byte("100,1.0\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadQuoteCSV(path); err == nil {
		t.Error("expected an error for a row with the wrong column count")
	}
}

func TestLoadTradeCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	body := "150,1.0005,10,m1,BUYER\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tc, err := LoadTradeCSV(path)
	if err != nil {
		t.Fatalf("LoadTradeCSV: %v", err)
	}
	if tc.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tc.Len())
	}
	if tc.MatchId[0] != "m1" || tc.AggressorSide[0] != "BUYER" {
		t.Errorf("unexpected column values: %+v", tc)
	}
}

func TestLoadQuoteCSV_MissingFile(t *testing.T) {
	if _, err := LoadQuoteCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
