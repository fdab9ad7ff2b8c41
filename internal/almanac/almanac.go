// Package almanac derives the day attributes of the Vietnamese almanac (lịch
// vạn sự) from the Can Chi identity of a date: Nạp Âm, the twelve officers,
// the Hoàng đạo / Hắc đạo spirits, lucky hours, age conflicts and day stars.
//
// All tables are package-level values built at init and never mutated, so
// every function here is safe for concurrent use.
package almanac

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/lunar"
)

// ErrInvariant signals an internal table inconsistency, as opposed to bad input.
var ErrInvariant = errors.New(config.ErrEngineInvariant)

// DayIdentity is the calendrical identity of one civil date.
type DayIdentity struct {
	Solar time.Time   `json:"solar"`
	Lunar lunar.Date  `json:"lunar"`
	Year  canchi.Pair `json:"year"`
	Month canchi.Pair `json:"month"`
	Day   canchi.Pair `json:"day"`
}

// Identify converts a civil date with conv and attaches its year, month and
// day pairs. The returned Solar field is normalised to midnight UTC.
func Identify(conv lunar.Converter, date time.Time) (DayIdentity, error) {
	y, m, d := date.Date()
	solar := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ld, err := conv.ToLunar(solar)
	if err != nil {
		return DayIdentity{}, fmt.Errorf("%s: %w", config.ErrLunarConvert, err)
	}

	return DayIdentity{
		Solar: solar,
		Lunar: ld,
		Year:  canchi.YearPair(ld.Year),
		Month: canchi.MonthPair(ld.Year, ld.Month),
		Day:   canchi.DayPair(solar),
	}, nil
}

// Attributes is the almanac reading of one day.
type Attributes struct {
	NapAm            NapAm           `json:"nap_am"`
	Officer          Officer         `json:"officer"`
	Zodiac           ZodiacStar      `json:"zodiac"`
	LuckyHours       []canchi.Branch `json:"lucky_hours"`
	ConflictBranches []canchi.Branch `json:"conflict_branches"`
	LuckyStars       []DayStar       `json:"lucky_stars"`
	UnluckyStars     []DayStar       `json:"unlucky_stars"`
}

// Describe reads the almanac attributes of an identified day.
func Describe(id DayIdentity) (Attributes, error) {
	napAm, err := LookupNapAm(id.Day)
	if err != nil {
		return Attributes{}, err
	}

	zodiac := ZodiacFor(id.Lunar.Day)
	lucky, unlucky := DayStars(id.Lunar.Month, id.Lunar.Day, id.Day)

	return Attributes{
		NapAm:            napAm,
		Officer:          OfficerFor(id.Lunar.Month, id.Lunar.Day),
		Zodiac:           zodiac,
		LuckyHours:       LuckyHours(zodiac),
		ConflictBranches: ConflictBranches(id.Day.Branch),
		LuckyStars:       lucky,
		UnluckyStars:     unlucky,
	}, nil
}

// InConflict reports whether a person born in birthYear clashes with the day.
func (a Attributes) InConflict(birthYear int) bool {
	b := canchi.YearPair(birthYear).Branch
	for _, c := range a.ConflictBranches {
		if c == b {
			return true
		}
	}
	return false
}
