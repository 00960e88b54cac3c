package domain

import (
	"fmt"
	"strconv"
	"time"
)

const (
	MonthAll  = "all"
	FirstYear = 2024
)

// Period is a (year, month) selection; Month is "01".."12" or "all".
type Period struct {
	Year  string
	Month string
}

func CurrentPeriod(now time.Time) Period {
	return Period{
		Year:  strconv.Itoa(now.Year()),
		Month: fmt.Sprintf("%02d", int(now.Month())),
	}
}

func ParsePeriod(year, month string) (Period, error) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1000 || y > 9999 {
		return Period{}, fmt.Errorf("invalid year %q", year)
	}
	if month == "" || month == MonthAll {
		return Period{Year: year, Month: MonthAll}, nil
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid month %q", month)
	}
	return Period{Year: year, Month: fmt.Sprintf("%02d", m)}, nil
}

func (p Period) IsAllMonths() bool {
	return p.Month == MonthAll
}

func (p Period) String() string {
	return p.Year + "/" + p.Month
}

// YearChoices lists selectable years from FirstYear through the current one.
func YearChoices(now time.Time) []string {
	var out []string
	for y := FirstYear; y <= now.Year(); y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

func MonthChoices() []string {
	out := []string{MonthAll}
	for m := 1; m <= 12; m++ {
		out = append(out, fmt.Sprintf("%02d", m))
	}
	return out
}
