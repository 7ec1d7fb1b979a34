package core

import (
	"reflect"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{name: "identical content", a: "call the plumber", b: "call the plumber", same: true},
		{name: "case and spacing ignored", a: "Call  the plumber\n", b: "call the PLUMBER", same: true},
		{name: "different content", a: "call the plumber", b: "call the dentist", same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.a) == Fingerprint(tt.b)
			if got != tt.same {
				t.Errorf("Fingerprint(%q) == Fingerprint(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestMemory_SetDate(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)
	m := &Memory{}

	if _, ok := m.Date(DateFieldDue); ok {
		t.Fatal("expected no due date on empty memory")
	}

	m.SetDate(DateFieldDue, ts)
	got, ok := m.Date(DateFieldDue)
	if !ok {
		t.Fatal("expected due date to be set")
	}
	if !got.Time.Equal(ts) {
		t.Errorf("Time = %v, want %v", got.Time, ts)
	}
	if got.Short != "2025-03-14" {
		t.Errorf("Short = %q, want %q", got.Short, "2025-03-14")
	}
}

func TestShortDate_SortsChronologically(t *testing.T) {
	dec := ShortDate(time.Date(2024, 12, 31, 12, 0, 0, 0, time.Local))
	jan := ShortDate(time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local))
	if !(dec < jan) {
		t.Errorf("expected %q < %q", dec, jan)
	}
}

func TestStartEndOfDay(t *testing.T) {
	ts := time.Date(2025, 6, 10, 13, 45, 0, 0, time.UTC)

	start := StartOfDay(ts)
	end := EndOfDay(ts)

	if want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
	if want := time.Date(2025, 6, 10, 23, 59, 59, 999000000, time.UTC); !end.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", end, want)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "trims and lowercases", in: []string{" Work ", "URGENT"}, want: []string{"urgent", "work"}},
		{name: "deduplicates", in: []string{"work", "Work", "work "}, want: []string{"work"}},
		{name: "drops empty", in: []string{"", "  ", "home"}, want: []string{"home"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateField_Valid(t *testing.T) {
	for _, f := range DateFields {
		if !f.Valid() {
			t.Errorf("%q should be valid", f)
		}
	}
	if DateField("created").Valid() {
		t.Error("unknown field should be invalid")
	}
}
