// Package lunar converts between Gregorian dates and the Vietnamese lunisolar
// calendar, including leap months.
//
// The conversion follows the astronomical rules of the calendar: a month starts
// on the local day of a new moon, month 11 always contains the winter solstice,
// and in a thirteen-month year the first month lacking a major solar term is
// the leap month. Vietnam reckons days at UTC+7, which is why its calendar
// occasionally differs from the Chinese one (UTC+8).
package lunar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
)

// Supported Gregorian year range of the astronomical series.
const (
	MinYear = 1900
	MaxYear = 2199
)

var (
	// ErrOutOfRange is returned for dates outside [MinYear, MaxYear].
	ErrOutOfRange = errors.New(config.ErrLunarRange)
	// ErrNoSuchLeapMonth is returned when a leap month is requested in a year that has none.
	ErrNoSuchLeapMonth = errors.New(config.ErrLunarLeap)
	// ErrInvalidDate is returned for lunar fields outside their domain.
	ErrInvalidDate = errors.New(config.ErrLunarInvalid)
)

// Date is a day of the lunar calendar.
type Date struct {
	Day   int  `json:"day"`
	Month int  `json:"month"`
	Year  int  `json:"year"`
	Leap  bool `json:"leap"`
}

// String renders the date as D/M/Y, marking leap months with an "n" suffix
// (tháng nhuận), e.g. "1/2n/2023".
func (d Date) String() string {
	if d.Leap {
		return fmt.Sprintf("%d/%dn/%d", d.Day, d.Month, d.Year)
	}
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// Converter is the contract of a lunar calendar implementation.
type Converter interface {
	// ToLunar converts the civil date of t (clock and location ignored).
	ToLunar(t time.Time) (Date, error)
	// ToSolar returns the Gregorian date (midnight UTC) of a lunar date.
	ToSolar(d Date) (time.Time, error)
}

// Vietnamese implements Converter for the Vietnamese calendar.
type Vietnamese struct {
	// TimeZone is the offset of the reference meridian in hours east of UTC.
	TimeZone float64
}

// NewVietnamese returns a converter on the official UTC+7 meridian.
func NewVietnamese() *Vietnamese {
	return &Vietnamese{TimeZone: config.DefaultTimeZone}
}

// ToLunar converts a Gregorian civil date to its lunar date.
func (v *Vietnamese) ToLunar(t time.Time) (Date, error) {
	yy, mm, dd := t.Date()
	if yy < MinYear || yy > MaxYear {
		return Date{}, fmt.Errorf("%w: %d", ErrOutOfRange, yy)
	}
	tz := v.TimeZone

	dayNumber := canchi.JulianDayNumber(yy, int(mm), dd)
	// The mean lunation only estimates k; a true new moon may drift past it
	// in either direction.
	k := floorInt((float64(dayNumber)-newMoonEpoch)/synodicMonth) + 1
	for newMoonDay(k, tz) > dayNumber {
		k--
	}
	for newMoonDay(k+1, tz) <= dayNumber {
		k++
	}
	monthStart := newMoonDay(k, tz)

	a11 := month11Start(yy, tz)
	b11 := a11
	var lunarYear int
	if a11 >= monthStart {
		lunarYear = yy
		a11 = month11Start(yy-1, tz)
	} else {
		lunarYear = yy + 1
		b11 = month11Start(yy+1, tz)
	}

	day := dayNumber - monthStart + 1
	diff := (monthStart - a11) / 29
	leap := false
	month := diff + 11
	if b11-a11 > 365 {
		leapDiff := leapMonthOffset(a11, tz)
		if diff >= leapDiff {
			month = diff + 10
			if diff == leapDiff {
				leap = true
			}
		}
	}
	if month > 12 {
		month -= 12
	}
	if month >= 11 && diff < 4 {
		lunarYear--
	}

	return Date{Day: day, Month: month, Year: lunarYear, Leap: leap}, nil
}

// ToSolar converts a lunar date to its Gregorian date.
func (v *Vietnamese) ToSolar(d Date) (time.Time, error) {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 30 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	if d.Year < MinYear || d.Year > MaxYear {
		return time.Time{}, fmt.Errorf("%w: %d", ErrOutOfRange, d.Year)
	}
	tz := v.TimeZone

	var a11, b11 int
	if d.Month < 11 {
		a11 = month11Start(d.Year-1, tz)
		b11 = month11Start(d.Year, tz)
	} else {
		a11 = month11Start(d.Year, tz)
		b11 = month11Start(d.Year+1, tz)
	}

	k := floorInt(0.5 + (float64(a11)-newMoonEpoch)/synodicMonth)
	off := d.Month - 11
	if off < 0 {
		off += 12
	}

	if b11-a11 > 365 {
		leapOff := leapMonthOffset(a11, tz)
		leapMonth := leapOff - 2
		if leapMonth < 0 {
			leapMonth += 12
		}
		if d.Leap && d.Month != leapMonth {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNoSuchLeapMonth, d)
		}
		if d.Leap || off >= leapOff {
			off++
		}
	} else if d.Leap {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoSuchLeapMonth, d)
	}

	monthStart := newMoonDay(k+off, tz)
	t := fromJDN(monthStart + d.Day - 1)

	// Day 30 of a 29-day month lands on the next month.
	back, err := v.ToLunar(t)
	if err != nil {
		return time.Time{}, err
	}
	if back != d {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return t, nil
}

// LeapMonth returns the leap month of a lunar year, or 0 when the year has none.
func (v *Vietnamese) LeapMonth(lunarYear int) int {
	tz := v.TimeZone
	a11 := month11Start(lunarYear-1, tz)
	b11 := month11Start(lunarYear, tz)
	if b11-a11 <= 365 {
		return 0
	}
	m := leapMonthOffset(a11, tz) - 2
	if m <= 0 {
		m += 12
	}
	return m
}

// fromJDN converts a Julian Day Number to a Gregorian date at midnight UTC.
func fromJDN(jd int) time.Time {
	a := jd + 32044
	b := (4*a + 3) / 146097
	c := a - b*146097/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := b*100 + d - 4800 + m/10
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func floorInt(x float64) int {
	return int(math.Floor(x))
}
