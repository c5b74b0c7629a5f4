package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Перечислитель разворачивает правило в конечную, строго возрастающую
// последовательность моментов вхождений внутри окна [windowStart, windowEnd].
// Состояния у него нет: повторный вызов с теми же аргументами возвращает
// ту же последовательность.

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// toROption переводит правило в опции rrule-go. dtstart — момент первого
// вхождения серии (дата + время начала по стенным часам в зоне бронирования).
func (r Rule) toROption(dtstart time.Time) rrule.ROption {
	opt := rrule.ROption{
		Interval: r.Interval,
		Wkst:     rrule.MO,
		Dtstart:  dtstart,
	}

	switch r.Freq {
	case FreqDaily:
		opt.Freq = rrule.DAILY
	case FreqWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case FreqMonthlyByDate:
		// Месяцы без запрошенного числа (например, 31 февраля)
		// rrule молча пропускает — ровно это поведение нам и нужно.
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = append(opt.Bymonthday, r.MonthDays...)
	case FreqMonthlyByWeekday:
		opt.Freq = rrule.MONTHLY
		for _, nth := range r.NthWeekdays {
			// Nth объявлен на указателе, значение из map не адресуемо.
			wd := rruleWeekdays[nth.Weekday]
			opt.Byweekday = append(opt.Byweekday, wd.Nth(nth.Ordinal))
		}
	}

	if r.Count != nil {
		// COUNT считается от dtstart, а не от начала окна: окно лишь
		// обрезает возвращаемый диапазон, но не перезапускает счётчик.
		opt.Count = *r.Count
	}
	if r.Until != nil {
		// Последний допустимый момент: дата UNTIL со временем начала
		// серии, в зоне dtstart, чтобы вхождение в этот день ещё попало.
		y, m, d := r.Until.Date()
		opt.Until = time.Date(y, m, d,
			dtstart.Hour(), dtstart.Minute(), dtstart.Second(), 0, dtstart.Location())
	}

	return opt
}

// Enumerate возвращает моменты вхождений правила внутри окна, включительно
// с обеих сторон. Последовательность строго возрастает и не содержит
// дубликатов.
func Enumerate(rule Rule, dtstart, windowStart, windowEnd time.Time) ([]time.Time, error) {
	if windowEnd.Before(windowStart) {
		return nil, nil
	}

	rr, err := rrule.NewRRule(rule.toROption(dtstart))
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}

	return rr.Between(windowStart, windowEnd, true), nil
}

// FirstOccurrence возвращает момент первого вхождения правила,
// начиная с dtstart включительно. Нулевое время — вхождений нет вовсе
// (например, UNTIL раньше первой подходящей даты).
func FirstOccurrence(rule Rule, dtstart time.Time) (time.Time, error) {
	rr, err := rrule.NewRRule(rule.toROption(dtstart))
	if err != nil {
		return time.Time{}, fmt.Errorf("build rrule: %w", err)
	}

	return rr.After(dtstart, true), nil
}

// LastOccurrence возвращает момент последнего вхождения правила.
// Для бесконечных правил последней даты не существует — возвращается nil.
func LastOccurrence(rule Rule, dtstart time.Time) (*time.Time, error) {
	if rule.IsNeverEnding() {
		return nil, nil
	}

	rr, err := rrule.NewRRule(rule.toROption(dtstart))
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}

	all := rr.All()
	if len(all) == 0 {
		return nil, nil
	}
	last := all[len(all)-1]
	return &last, nil
}
