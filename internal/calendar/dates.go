package calendar

import (
	"fmt"
	"sort"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// DateOf отбрасывает время суток и возвращает календарную дату
// в виде полуночи UTC. Год/месяц/день берутся в поясе самого t.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return t, nil
}

// FormatDate — обратное к ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseClock проверяет время суток "HH:MM" и возвращает каноническую запись.
func ParseClock(s string) (string, error) {
	if len(s) != len(clockLayout) {
		return "", &ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not an HH:MM time", s)}
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", &ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not an HH:MM time", s)}
	}
	return t.Format(clockLayout), nil
}

// UniqueDates убирает дубликаты (по календарной дате) и сортирует по возрастанию.
func UniqueDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = DateOf(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// UniqueClocks убирает дубликаты и сортирует: строки "HH:MM" сравниваются лексикографически.
func UniqueClocks(times []string) []string {
	seen := make(map[string]struct{}, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
