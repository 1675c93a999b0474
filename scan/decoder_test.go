package scan

import (
	"reflect"
	"testing"
)

func TestFeedSplitAcrossReports(t *testing.T) {
	d := NewDecoder(0)

	if got := d.Feed([]byte("12345")); got != nil {
		t.Fatalf("expected no token from partial report, got %v", got)
	}
	got := d.Feed([]byte("67890\r"))
	want := []string{"1234567890"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if d.Pending() != "" {
		t.Errorf("expected empty buffer after terminator, got %q", d.Pending())
	}
}

func TestFeedIdleReportDropped(t *testing.T) {
	d := NewDecoder(0)

	d.Feed([]byte("ABC"))
	if got := d.Feed(make([]byte, 64)); got != nil {
		t.Fatalf("expected nothing from all-zero report, got %v", got)
	}
	if d.Pending() != "ABC" {
		t.Errorf("idle report must not disturb the buffer, have %q", d.Pending())
	}
}

func TestFeedFiltersNonPrintable(t *testing.T) {
	d := NewDecoder(0)

	report := []byte{0x01, 'A', 'B', 0x00, 'C', 0x7f, '1', '2', '3', '\n'}
	got := d.Feed(report)
	want := []string{"ABC123"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFeedShortSegmentDiscarded(t *testing.T) {
	d := NewDecoder(6)

	if got := d.Feed([]byte("abc\r")); got != nil {
		t.Fatalf("segment below minimum length must be dropped, got %v", got)
	}
	got := d.Feed([]byte("abcdef\r"))
	if !reflect.DeepEqual(got, []string{"abcdef"}) {
		t.Fatalf("expected [abcdef], got %v", got)
	}
}

func TestFeedMultipleTokensOneReport(t *testing.T) {
	d := NewDecoder(0)

	got := d.Feed([]byte("1111111\r2222222\n333"))
	want := []string{"1111111", "2222222"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = d.Feed([]byte("3333\r"))
	if !reflect.DeepEqual(got, []string{"3333333"}) {
		t.Fatalf("expected remainder to complete as [3333333], got %v", got)
	}
}

func TestFeedCRLFPair(t *testing.T) {
	d := NewDecoder(0)

	got := d.Feed([]byte("CARD001\r\n"))
	if !reflect.DeepEqual(got, []string{"CARD001"}) {
		t.Fatalf("expected [CARD001], got %v", got)
	}
	// The LF half of the pair must not produce an empty token later.
	if got := d.Feed([]byte("CARD002\r\n")); !reflect.DeepEqual(got, []string{"CARD002"}) {
		t.Fatalf("expected [CARD002], got %v", got)
	}
}
