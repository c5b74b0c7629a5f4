package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Canonical(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{
			name: "daily",
			rule: Rule{Freq: FreqDaily, Interval: 1},
			want: "FREQ=DAILY;INTERVAL=1",
		},
		{
			name: "daily with count",
			rule: Rule{Freq: FreqDaily, Interval: 2, Count: intPtr(5)},
			want: "FREQ=DAILY;INTERVAL=2;COUNT=5",
		},
		{
			name: "weekly sorts weekdays monday first",
			rule: Rule{
				Freq:     FreqWeekly,
				Interval: 2,
				Weekdays: []time.Weekday{time.Wednesday, time.Monday, time.Sunday},
			},
			want: "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,SU",
		},
		{
			name: "weekly with until",
			rule: Rule{
				Freq:     FreqWeekly,
				Interval: 1,
				Weekdays: []time.Weekday{time.Monday},
				Until:    datePtr(2023, 11, 1),
			},
			want: "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO;UNTIL=20231101",
		},
		{
			name: "monthly by date sorts days",
			rule: Rule{Freq: FreqMonthlyByDate, Interval: 1, MonthDays: []int{31, 1, 15}},
			want: "FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=1,15,31",
		},
		{
			name: "monthly by weekday puts last after positives",
			rule: Rule{
				Freq:     FreqMonthlyByWeekday,
				Interval: 1,
				NthWeekdays: []NthWeekday{
					{Weekday: time.Friday, Ordinal: OrdinalLast},
					{Weekday: time.Tuesday, Ordinal: 2},
				},
			},
			want: "FREQ=MONTHLY;INTERVAL=1;BYDAY=2TU,-1FR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Encode())
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	encodings := []string{
		"FREQ=DAILY;INTERVAL=1",
		"FREQ=DAILY;INTERVAL=3;COUNT=100",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR",
		"FREQ=WEEKLY;INTERVAL=1;BYDAY=SA,SU;UNTIL=20251231",
		"FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=1,15,31",
		"FREQ=MONTHLY;INTERVAL=6;BYDAY=2TU,-1FR",
	}

	for _, encoded := range encodings {
		t.Run(encoded, func(t *testing.T) {
			rule, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, encoded, rule.Encode())
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		field   string
	}{
		{"missing freq", "INTERVAL=1", "FREQ"},
		{"unknown freq", "FREQ=HOURLY;INTERVAL=1", "FREQ"},
		{"unknown part", "FREQ=DAILY;INTERVAL=1;WKST=MO", "WKST"},
		{"bad interval", "FREQ=DAILY;INTERVAL=abc", "INTERVAL"},
		{"zero interval", "FREQ=DAILY;INTERVAL=0", "Interval"},
		{"count above cap", "FREQ=DAILY;INTERVAL=1;COUNT=101", "Count"},
		{"count and until", "FREQ=DAILY;INTERVAL=1;COUNT=5;UNTIL=20231101", "Count"},
		{"weekly without weekdays", "FREQ=WEEKLY;INTERVAL=1", "Weekdays"},
		{"bad weekday code", "FREQ=WEEKLY;INTERVAL=1;BYDAY=XX", "BYDAY"},
		{"bad until", "FREQ=DAILY;INTERVAL=1;UNTIL=2023-11-01", "UNTIL"},
		{"monthly without sets", "FREQ=MONTHLY;INTERVAL=1", "FREQ"},
		{"monthly with both sets", "FREQ=MONTHLY;INTERVAL=1;BYDAY=2TU;BYMONTHDAY=15", "FREQ"},
		{"month day out of range", "FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=32", "MonthDays"},
		{"nth ordinal out of range", "FREQ=MONTHLY;INTERVAL=1;BYDAY=6TU", "NthWeekdays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			require.Error(t, err)

			var merr *MalformedRecurrenceError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.field, merr.Field)
		})
	}
}
