package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Frequency string

const (
	FreqDaily            Frequency = "DAILY"
	FreqWeekly           Frequency = "WEEKLY"
	FreqMonthlyByDate    Frequency = "MONTHLY_BY_DATE"    // по числам месяца (BYMONTHDAY)
	FreqMonthlyByWeekday Frequency = "MONTHLY_BY_WEEKDAY" // по n-му дню недели месяца (BYDAY=2TU)
)

// OrdinalLast обозначает последнее вхождение дня недели в месяце.
const OrdinalLast = -1

// MaxCount — пользовательский предел количества вхождений серии.
const MaxCount = 100

// NthWeekday задаёт n-й день недели месяца, например вторая среда (WE, 2)
// или последняя пятница (FR, -1).
type NthWeekday struct {
	Weekday time.Weekday `json:"weekday"`
	Ordinal int          `json:"ordinal"` // 1..5 либо OrdinalLast
}

// Rule — разобранное правило повторения. Канонический текстовый вид
// получается через Encode и разбирается обратно через Decode.
type Rule struct {
	Freq     Frequency `validate:"required,oneof=DAILY WEEKLY MONTHLY_BY_DATE MONTHLY_BY_WEEKDAY"`
	Interval int       `validate:"required,min=1"`

	Weekdays    []time.Weekday `validate:"dive,min=0,max=6"` // для WEEKLY
	MonthDays   []int          `validate:"dive,min=1,max=31"` // для MONTHLY_BY_DATE
	NthWeekdays []NthWeekday   // для MONTHLY_BY_WEEKDAY

	// Завершение: оба nil = бесконечная серия, иначе ровно одно из двух.
	Count *int       `validate:"omitempty,min=1,max=100"`
	Until *time.Time // последняя допустимая дата, включительно
}

// MalformedRecurrenceError описывает некорректное правило повторения.
// Field указывает, какое поле не прошло проверку, чтобы слой запросов
// мог показать ошибку рядом с полем формы.
type MalformedRecurrenceError struct {
	Field  string
	Reason string
}

func (e *MalformedRecurrenceError) Error() string {
	return fmt.Sprintf("malformed recurrence rule: %s: %s", e.Field, e.Reason)
}

var validate = validator.New()

// Validate проверяет внутреннюю согласованность правила.
// Возвращает *MalformedRecurrenceError для первого некорректного поля.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			// Для элементов срезов Field() возвращает "MonthDays[2]" —
			// индекс отбрасываем, пользователю важно само поле.
			field, _, _ := strings.Cut(verrs[0].Field(), "[")
			return &MalformedRecurrenceError{
				Field:  field,
				Reason: fmt.Sprintf("failed %q constraint", verrs[0].Tag()),
			}
		}
		return fmt.Errorf("validate rule: %w", err)
	}

	switch r.Freq {
	case FreqWeekly:
		if len(r.Weekdays) == 0 {
			return &MalformedRecurrenceError{Field: "Weekdays", Reason: "weekly rule requires at least one weekday"}
		}
	case FreqMonthlyByDate:
		if len(r.MonthDays) == 0 {
			return &MalformedRecurrenceError{Field: "MonthDays", Reason: "monthly-by-date rule requires at least one day of month"}
		}
	case FreqMonthlyByWeekday:
		if len(r.NthWeekdays) == 0 {
			return &MalformedRecurrenceError{Field: "NthWeekdays", Reason: "monthly-by-weekday rule requires at least one entry"}
		}
		for _, nth := range r.NthWeekdays {
			if nth.Ordinal == 0 || nth.Ordinal > 5 || nth.Ordinal < OrdinalLast {
				return &MalformedRecurrenceError{
					Field:  "NthWeekdays",
					Reason: fmt.Sprintf("ordinal %d is not in 1..5 or -1", nth.Ordinal),
				}
			}
			if nth.Weekday < time.Sunday || nth.Weekday > time.Saturday {
				return &MalformedRecurrenceError{
					Field:  "NthWeekdays",
					Reason: fmt.Sprintf("invalid weekday %d", nth.Weekday),
				}
			}
		}
	}

	if r.Count != nil && r.Until != nil {
		return &MalformedRecurrenceError{Field: "Count", Reason: "count and until are mutually exclusive"}
	}

	return nil
}

// IsNeverEnding проверяет, бесконечно ли правило.
func (r Rule) IsNeverEnding() bool {
	return r.Count == nil && r.Until == nil
}
