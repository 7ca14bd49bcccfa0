package main

import (
	"testing"

	"github.com/goetzr/dump-msg-tables/internal/msgtable"
)

func TestSampleTableDecodes(t *testing.T) {
	entries, err := msgtable.Decode(sampleTable())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := []msgtable.Entry{
		{ID: 0, Encoding: msgtable.ANSI, Text: "The operation completed successfully.\r\n"},
		{ID: 1, Encoding: msgtable.ANSI, Text: "Incorrect function.\r\n"},
		{ID: 2, Encoding: msgtable.ANSI, Text: "The system cannot find the file specified.\r\n"},
	}

	if len(entries) != len(want) {
		t.Fatalf("Decode() returned %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry msgtable.Entry
		want  string
	}{
		{
			name:  "small id",
			entry: msgtable.Entry{ID: 2, Text: "two"},
			want:  "       2: two",
		},
		{
			name:  "full width id",
			entry: msgtable.Entry{ID: 0xC0000005, Text: "wide"},
			want:  "c0000005: wide",
		},
		{
			name:  "hex digits",
			entry: msgtable.Entry{ID: 0xab, Text: "mixed"},
			want:  "      ab: mixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEntry(tt.entry); got != tt.want {
				t.Errorf("formatEntry() = %q, want %q", got, tt.want)
			}
		})
	}
}
