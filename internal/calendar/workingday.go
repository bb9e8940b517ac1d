package calendar

import "time"

// WorkingCalendar answers working-day questions against a fixed holiday
// table. Immutable for the process lifetime.
type WorkingCalendar struct {
	holidays map[string]string // DateLayout date -> holiday name
}

// NewWorkingCalendar builds a working calendar from a date -> holiday-name map.
func NewWorkingCalendar(holidays map[string]string) *WorkingCalendar {
	h := make(map[string]string, len(holidays))
	for k, v := range holidays {
		h[k] = v
	}
	return &WorkingCalendar{holidays: h}
}

// TaiwanHolidays2026 is the deployment's statutory holiday table.
func TaiwanHolidays2026() map[string]string {
	return map[string]string{
		"2026-01-01": "元旦",
		"2026-02-14": "春節假期",
		"2026-02-15": "小年夜",
		"2026-02-16": "除夕",
		"2026-02-17": "春節",
		"2026-02-18": "春節",
		"2026-02-19": "春節",
		"2026-02-20": "春節假期",
		"2026-02-28": "和平紀念日",
		"2026-04-04": "兒童節",
		"2026-04-05": "清明節",
		"2026-05-01": "勞動節",
		"2026-05-31": "端午節",
		"2026-10-01": "中秋節",
		"2026-10-10": "國慶日",
	}
}

// IsWorkingDay reports whether the date is a working day. For non-working
// days the reason names the specific cause: the weekday for weekends, the
// holiday name for listed holidays.
func (w *WorkingCalendar) IsWorkingDay(d time.Time) (bool, string) {
	switch d.Weekday() {
	case time.Saturday:
		return false, "週六"
	case time.Sunday:
		return false, "週日"
	}
	if name, ok := w.holidays[d.Format(DateLayout)]; ok {
		return false, name
	}
	return true, ""
}

// NextWorkingDays walks forward one day at a time starting the day after
// from, collecting working days until count are gathered.
func (w *WorkingCalendar) NextWorkingDays(from time.Time, count int) []time.Time {
	result := make([]time.Time, 0, count)
	current := from
	for len(result) < count {
		current = current.AddDate(0, 0, 1)
		if ok, _ := w.IsWorkingDay(current); ok {
			result = append(result, current)
		}
	}
	return result
}

// NextWorkingDates is NextWorkingDays formatted as wire dates.
func (w *WorkingCalendar) NextWorkingDates(from time.Time, count int) []string {
	days := w.NextWorkingDays(from, count)
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(DateLayout)
	}
	return dates
}
