package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Канонический текстовый вид правила — подмножество RRULE из RFC 5545:
// части в фиксированном порядке (FREQ, INTERVAL, BYDAY, BYMONTHDAY,
// COUNT, UNTIL), множества отсортированы. Encode и Decode взаимно
// обратны, поэтому правило можно детерминированно разобрать заново.

const untilLayout = "20060102"

var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var weekdayByCode = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// mondayFirst возвращает позицию дня недели при неделе, начинающейся с понедельника.
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Encode сериализует правило в канонический текстовый вид.
// Правило должно быть валидным; Encode не проверяет его повторно.
func (r Rule) Encode() string {
	parts := make([]string, 0, 4)

	freq := string(r.Freq)
	if r.Freq == FreqMonthlyByDate || r.Freq == FreqMonthlyByWeekday {
		freq = "MONTHLY"
	}
	parts = append(parts, "FREQ="+freq, "INTERVAL="+strconv.Itoa(r.Interval))

	switch r.Freq {
	case FreqWeekly:
		days := append([]time.Weekday(nil), r.Weekdays...)
		sort.Slice(days, func(i, j int) bool { return mondayFirst(days[i]) < mondayFirst(days[j]) })
		codes := make([]string, len(days))
		for i, d := range days {
			codes[i] = weekdayCodes[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	case FreqMonthlyByDate:
		days := append([]int(nil), r.MonthDays...)
		sort.Ints(days)
		codes := make([]string, len(days))
		for i, d := range days {
			codes[i] = strconv.Itoa(d)
		}
		parts = append(parts, "BYMONTHDAY="+strings.Join(codes, ","))
	case FreqMonthlyByWeekday:
		nths := append([]NthWeekday(nil), r.NthWeekdays...)
		sort.Slice(nths, func(i, j int) bool {
			// Положительные ординалы по возрастанию, "последний" в конце.
			oi, oj := nths[i].Ordinal, nths[j].Ordinal
			if oi == OrdinalLast {
				oi = 6
			}
			if oj == OrdinalLast {
				oj = 6
			}
			if oi != oj {
				return oi < oj
			}
			return mondayFirst(nths[i].Weekday) < mondayFirst(nths[j].Weekday)
		})
		codes := make([]string, len(nths))
		for i, nth := range nths {
			codes[i] = fmt.Sprintf("%d%s", nth.Ordinal, weekdayCodes[nth.Weekday])
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}

	if r.Count != nil {
		parts = append(parts, "COUNT="+strconv.Itoa(*r.Count))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.Format(untilLayout))
	}

	return strings.Join(parts, ";")
}

// Decode разбирает канонический текстовый вид обратно в Rule.
// Разобранное правило дополнительно проходит Validate.
func Decode(encoded string) (Rule, error) {
	var (
		rule      Rule
		freq      string
		byDay     []string
		byMonth   []int
		hasByDay  bool
		hasByMDay bool
	)
	rule.Interval = 1

	for _, part := range strings.Split(encoded, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found || value == "" {
			return Rule{}, &MalformedRecurrenceError{Field: part, Reason: "expected KEY=VALUE part"}
		}

		switch key {
		case "FREQ":
			freq = value
		case "INTERVAL":
			interval, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &MalformedRecurrenceError{Field: "INTERVAL", Reason: "not an integer"}
			}
			rule.Interval = interval
		case "BYDAY":
			byDay = strings.Split(value, ",")
			hasByDay = true
		case "BYMONTHDAY":
			for _, code := range strings.Split(value, ",") {
				day, err := strconv.Atoi(code)
				if err != nil {
					return Rule{}, &MalformedRecurrenceError{Field: "BYMONTHDAY", Reason: "not an integer: " + code}
				}
				byMonth = append(byMonth, day)
			}
			hasByMDay = true
		case "COUNT":
			count, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &MalformedRecurrenceError{Field: "COUNT", Reason: "not an integer"}
			}
			rule.Count = &count
		case "UNTIL":
			until, err := time.Parse(untilLayout, value)
			if err != nil {
				return Rule{}, &MalformedRecurrenceError{Field: "UNTIL", Reason: "expected YYYYMMDD date"}
			}
			rule.Until = &until
		default:
			return Rule{}, &MalformedRecurrenceError{Field: key, Reason: "unknown rule part"}
		}
	}

	switch freq {
	case "DAILY":
		rule.Freq = FreqDaily
	case "WEEKLY":
		rule.Freq = FreqWeekly
		for _, code := range byDay {
			weekday, ok := weekdayByCode[code]
			if !ok {
				return Rule{}, &MalformedRecurrenceError{Field: "BYDAY", Reason: "unknown weekday code: " + code}
			}
			rule.Weekdays = append(rule.Weekdays, weekday)
		}
	case "MONTHLY":
		// Класс месячного правила определяется присутствующим BY*-множеством.
		switch {
		case hasByMDay && !hasByDay:
			rule.Freq = FreqMonthlyByDate
			rule.MonthDays = byMonth
		case hasByDay && !hasByMDay:
			rule.Freq = FreqMonthlyByWeekday
			for _, code := range byDay {
				nth, err := parseNthWeekday(code)
				if err != nil {
					return Rule{}, err
				}
				rule.NthWeekdays = append(rule.NthWeekdays, nth)
			}
		default:
			return Rule{}, &MalformedRecurrenceError{Field: "FREQ", Reason: "monthly rule requires exactly one of BYDAY or BYMONTHDAY"}
		}
	case "":
		return Rule{}, &MalformedRecurrenceError{Field: "FREQ", Reason: "missing"}
	default:
		return Rule{}, &MalformedRecurrenceError{Field: "FREQ", Reason: "unknown frequency: " + freq}
	}

	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}

	return rule, nil
}

// parseNthWeekday разбирает запись вида "2TU" или "-1FR".
func parseNthWeekday(code string) (NthWeekday, error) {
	if len(code) < 3 {
		return NthWeekday{}, &MalformedRecurrenceError{Field: "BYDAY", Reason: "expected ordinal and weekday: " + code}
	}
	weekday, ok := weekdayByCode[code[len(code)-2:]]
	if !ok {
		return NthWeekday{}, &MalformedRecurrenceError{Field: "BYDAY", Reason: "unknown weekday code: " + code}
	}
	ordinal, err := strconv.Atoi(code[:len(code)-2])
	if err != nil {
		return NthWeekday{}, &MalformedRecurrenceError{Field: "BYDAY", Reason: "ordinal is not an integer: " + code}
	}
	return NthWeekday{Weekday: weekday, Ordinal: ordinal}, nil
}
