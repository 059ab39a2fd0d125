package util

import (
	"testing"
	"time"
)

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat("123.45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 123.45 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestParseFloatRejectsGarbage(t *testing.T) {
	if _, err := ParseFloat("abc"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
	if _, err := ParseFloat(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseTimeMillis(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got, ok := ParseTime("1728555010000")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}
