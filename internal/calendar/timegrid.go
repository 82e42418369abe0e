package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// Границы сетки записи: с 09:00 до 21:00, шаг 30 минут (последний слот 20:30).
const (
	GridStartHour = 9
	GridEndHour   = 21
	GridStep      = 30 * time.Minute
)

// Periods — горизонты (в днях), из которых оператор выбирает даты публикации.
var Periods = []int{7, 14}

// IsPeriod сообщает, входит ли days в список допустимых горизонтов.
func IsPeriod(days int) bool {
	for _, p := range Periods {
		if p == days {
			return true
		}
	}
	return false
}

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NormalizeTimeRange нормализует интервал:
//   - меняет местами границы, если они перепутаны;
//   - переводит в заданный часовой пояс loc;
//   - при превышении maxDuration обрезает интервал до start+maxDuration.
//
// Если maxDuration <= 0, ограничение по длительности не применяется.
func NormalizeTimeRange(
	start, end time.Time,
	loc *time.Location,
	maxDuration time.Duration,
) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}

	if end.Before(start) {
		start, end = end, start
	}

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	if maxDuration > 0 && end.Sub(start) > maxDuration {
		end = start.Add(maxDuration)
	}

	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}

	return TimeRange{Start: start, End: end}, nil
}

// SplitToTimeSlots разбивает интервал на слоты фиксированной длительности.
// alignMinutes > 0 — выравнивание начала по ближайшей отметке, кратной alignMinutes.
// "Хвост" меньшей длительности, чем slotDuration, отбрасывается.
func SplitToTimeSlots(
	tr TimeRange,
	slotDuration time.Duration,
	alignMinutes int,
) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	start := tr.Start

	if alignMinutes > 0 {
		if rem := start.Minute() % alignMinutes; rem != 0 {
			start = start.Truncate(time.Minute).Add(time.Duration(alignMinutes-rem) * time.Minute)
			if !start.Before(tr.End) {
				return []TimeRange{}, nil
			}
		}
	}

	var slots []TimeRange
	for cur := start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(slotDuration)})
	}

	return slots, nil
}

// DayGrid возвращает фиксированную сетку времени приёма "HH:MM":
// 09:00, 09:30, ..., 20:30.
func DayGrid() []string {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	tr, err := NormalizeTimeRange(base.Add(GridStartHour*time.Hour), base.Add(GridEndHour*time.Hour), time.UTC, 24*time.Hour)
	if err != nil {
		panic(fmt.Sprintf("calendar: day grid: %v", err))
	}
	slots, err := SplitToTimeSlots(tr, GridStep, 0)
	if err != nil {
		// GridStep — положительная константа.
		panic(fmt.Sprintf("calendar: day grid: %v", err))
	}

	grid := make([]string, 0, len(slots))
	for _, s := range slots {
		grid = append(grid, s.Start.Format(clockLayout))
	}
	return grid
}

// Horizon генерирует список дат-кандидатов: today, today+1, ..., today+days-1.
func Horizon(today time.Time, days int) []time.Time {
	if days <= 0 {
		return []time.Time{}
	}
	first := DateOf(today)
	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, first.AddDate(0, 0, i))
	}
	return dates
}
