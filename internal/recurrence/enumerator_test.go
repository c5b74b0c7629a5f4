package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func datesOf(occurrences []time.Time) []string {
	dates := make([]string, len(occurrences))
	for i, occ := range occurrences {
		dates[i] = occ.Format("2006-01-02")
	}
	return dates
}

func intPtr(v int) *int { return &v }

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestEnumerate_DailyWithCount(t *testing.T) {
	loc := berlin(t)
	rule := Rule{Freq: FreqDaily, Interval: 1, Count: intPtr(5)}
	dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2023, 9, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2023-10-01", "2023-10-02", "2023-10-03", "2023-10-04", "2023-10-05",
	}, datesOf(occurrences))

	for _, occ := range occurrences {
		assert.Equal(t, 9, occ.In(loc).Hour())
	}
}

func TestEnumerate_CountIsAbsoluteNotPerWindow(t *testing.T) {
	// Окно лишь обрезает результат: COUNT считается от начала серии,
	// сколько бы раз и с какими бы подокнами перечислитель ни вызывался.
	loc := berlin(t)
	rule := Rule{Freq: FreqDaily, Interval: 1, Count: intPtr(5)}
	dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

	first, err := Enumerate(rule, dtstart,
		time.Date(2023, 10, 1, 0, 0, 0, 0, loc),
		time.Date(2023, 10, 3, 23, 59, 59, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-10-01", "2023-10-02", "2023-10-03"}, datesOf(first))

	rest, err := Enumerate(rule, dtstart,
		time.Date(2023, 10, 4, 0, 0, 0, 0, loc),
		time.Date(2024, 10, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-10-04", "2023-10-05"}, datesOf(rest))

	assert.Len(t, append(first, rest...), 5)
}

func TestEnumerate_Restartable(t *testing.T) {
	loc := berlin(t)
	rule := Rule{Freq: FreqDaily, Interval: 3}
	dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)
	windowStart := time.Date(2023, 10, 1, 0, 0, 0, 0, loc)
	windowEnd := time.Date(2023, 11, 1, 0, 0, 0, 0, loc)

	first, err := Enumerate(rule, dtstart, windowStart, windowEnd)
	require.NoError(t, err)
	second, err := Enumerate(rule, dtstart, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEnumerate_BiweeklyMondayWednesdayUntil(t *testing.T) {
	loc := berlin(t)
	until := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	rule := Rule{
		Freq:     FreqWeekly,
		Interval: 2,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		Until:    &until,
	}
	// 2023-10-02 — понедельник.
	dtstart := time.Date(2023, 10, 2, 9, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2023, 10, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	// Недели 02.10, 16.10 и 30.10 активны; промежуточные пропущены.
	// 2023-11-01 — среда активной недели и не позже UNTIL, поэтому входит.
	assert.Equal(t, []string{
		"2023-10-02", "2023-10-04",
		"2023-10-16", "2023-10-18",
		"2023-10-30", "2023-11-01",
	}, datesOf(occurrences))
}

func TestEnumerate_MonthlyByDateSkipsShortMonths(t *testing.T) {
	loc := berlin(t)
	rule := Rule{Freq: FreqMonthlyByDate, Interval: 1, MonthDays: []int{31}}
	dtstart := time.Date(2024, 1, 31, 10, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 8, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	// Февраль, апрель и июнь без 31-го числа пропущены молча.
	assert.Equal(t, []string{
		"2024-01-31", "2024-03-31", "2024-05-31", "2024-07-31",
	}, datesOf(occurrences))
}

func TestEnumerate_MonthlyByWeekday(t *testing.T) {
	loc := berlin(t)
	rule := Rule{
		Freq:     FreqMonthlyByWeekday,
		Interval: 1,
		NthWeekdays: []NthWeekday{
			{Weekday: time.Tuesday, Ordinal: 2},
			{Weekday: time.Friday, Ordinal: OrdinalLast},
		},
	}
	dtstart := time.Date(2023, 10, 1, 14, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2023, 10, 1, 0, 0, 0, 0, loc),
		time.Date(2023, 12, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	// Вторые вторники: 10.10, 14.11; последние пятницы: 27.10, 24.11.
	assert.Equal(t, []string{
		"2023-10-10", "2023-10-27", "2023-11-14", "2023-11-24",
	}, datesOf(occurrences))
}

func TestEnumerate_StrictlyAscendingNoDuplicates(t *testing.T) {
	loc := berlin(t)
	rule := Rule{
		Freq:     FreqWeekly,
		Interval: 1,
		// Дни недели намеренно в произвольном порядке.
		Weekdays: []time.Weekday{time.Friday, time.Monday, time.Wednesday, time.Monday},
	}
	dtstart := time.Date(2023, 10, 2, 9, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2023, 10, 1, 0, 0, 0, 0, loc),
		time.Date(2023, 11, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	require.NotEmpty(t, occurrences)

	for i := 1; i < len(occurrences); i++ {
		assert.True(t, occurrences[i].After(occurrences[i-1]),
			"expected strictly ascending sequence at index %d", i)
	}
}

func TestEnumerate_EmptyWindow(t *testing.T) {
	loc := berlin(t)
	rule := Rule{Freq: FreqDaily, Interval: 1}
	dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

	occurrences, err := Enumerate(rule, dtstart,
		time.Date(2023, 11, 1, 0, 0, 0, 0, loc),
		time.Date(2023, 10, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}

func TestFirstOccurrence_SkipsToFirstMatchingWeekday(t *testing.T) {
	loc := berlin(t)
	rule := Rule{Freq: FreqWeekly, Interval: 1, Weekdays: []time.Weekday{time.Wednesday}}
	// Начало в понедельник, первое вхождение — ближайшая среда.
	dtstart := time.Date(2023, 10, 2, 9, 0, 0, 0, loc)

	first, err := FirstOccurrence(rule, dtstart)
	require.NoError(t, err)
	assert.Equal(t, "2023-10-04", first.Format("2006-01-02"))
}

func TestLastOccurrence(t *testing.T) {
	loc := berlin(t)

	t.Run("count", func(t *testing.T) {
		rule := Rule{Freq: FreqDaily, Interval: 1, Count: intPtr(5)}
		dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

		last, err := LastOccurrence(rule, dtstart)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, "2023-10-05", last.Format("2006-01-02"))
	})

	t.Run("until", func(t *testing.T) {
		rule := Rule{Freq: FreqDaily, Interval: 7, Until: datePtr(2023, 10, 20)}
		dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

		last, err := LastOccurrence(rule, dtstart)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, "2023-10-15", last.Format("2006-01-02"))
	})

	t.Run("never ending", func(t *testing.T) {
		rule := Rule{Freq: FreqDaily, Interval: 1}
		dtstart := time.Date(2023, 10, 1, 9, 0, 0, 0, loc)

		last, err := LastOccurrence(rule, dtstart)
		require.NoError(t, err)
		assert.Nil(t, last)
	})
}
