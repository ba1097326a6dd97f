package harvest

import "testing"

func TestBitrixDateRange(t *testing.T) {
	from, to, err := BitrixDateRange("2024-01-10", "2024-01-10", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "2024-01-09 21:00:00" {
		t.Fatalf("from = %q", from)
	}
	if to != "2024-01-10 20:59:59" {
		t.Fatalf("to = %q", to)
	}
}

func TestBitrixDateRangeMultiDay(t *testing.T) {
	from, to, err := BitrixDateRange("2024-03-01", "2024-03-05", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "2024-02-29 21:00:00" {
		t.Fatalf("from = %q", from)
	}
	if to != "2024-03-05 20:59:59" {
		t.Fatalf("to = %q", to)
	}
}

func TestBitrixDateRangeZeroOffset(t *testing.T) {
	from, to, err := BitrixDateRange("2024-01-10", "2024-01-10", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "2024-01-10 00:00:00" || to != "2024-01-10 23:59:59" {
		t.Fatalf("window = %q .. %q", from, to)
	}
}

func TestBitrixDateRangeBadInput(t *testing.T) {
	if _, _, err := BitrixDateRange("10.01.2024", "2024-01-10", 3); err == nil {
		t.Fatal("expected error for malformed date_from")
	}
	if _, _, err := BitrixDateRange("2024-01-10", "tomorrow", 3); err == nil {
		t.Fatal("expected error for malformed date_to")
	}
}
