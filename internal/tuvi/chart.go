// Package tuvi builds Tử Vi natal charts: twelve palaces anchored at the
// Life palace, stars placed by fixed offset rules, and the ratings derived
// from them.
//
// The major stars follow a single linear offset from the Tử Vi anchor. This
// is a simplification of the classical tables and is kept as is.
package tuvi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/lunar"
)

// PalaceCount is the size of the palace ring.
const PalaceCount = 12

// ErrPrecondition marks a rejected birth input; no chart was built.
var ErrPrecondition = errors.New(config.ErrPrecondition)

// palaceMeaning is one slot of the meaning ring.
type palaceMeaning struct {
	name   string
	domain string
}

// meaningRing starts at the Life palace and runs in branch order.
var meaningRing = [PalaceCount]palaceMeaning{
	{"Mệnh", "bản thân"},
	{"Phụ Mẫu", "cha mẹ"},
	{"Phúc Đức", "phúc phần"},
	{"Điền Trạch", "nhà đất"},
	{"Quan Lộc", "sự nghiệp"},
	{"Nô Bộc", "bạn bè"},
	{"Thiên Di", "xuất hành"},
	{"Tật Ách", "sức khỏe"},
	{"Tài Bạch", "tiền bạc"},
	{"Tử Tức", "con cái"},
	{"Phu Thê", "hôn nhân"},
	{"Huynh Đệ", "anh em"},
}

// destinyByKey maps (year mod 10 + month) mod 12 to the chart's element.
var destinyByKey = map[int]almanac.Element{
	0:  almanac.Water,
	1:  almanac.Wood,
	2:  almanac.Metal,
	3:  almanac.Earth,
	4:  almanac.Fire,
	5:  almanac.Water,
	6:  almanac.Wood,
	7:  almanac.Metal,
	8:  almanac.Earth,
	9:  almanac.Fire,
	10: almanac.Water,
	11: almanac.Wood,
}

// elementWeight is the Cục number of each element (Thủy Nhị Cục ... Hỏa Lục Cục).
var elementWeight = map[almanac.Element]int{
	almanac.Water: 2,
	almanac.Wood:  3,
	almanac.Metal: 4,
	almanac.Earth: 5,
	almanac.Fire:  6,
}

var cucNames = map[int]string{
	2: "Nhị Cục",
	3: "Tam Cục",
	4: "Tứ Cục",
	5: "Ngũ Cục",
	6: "Lục Cục",
}

// Palace is one slot of the ring. Position and Branch share the same index.
type Palace struct {
	Position     int             `json:"position"`
	Branch       canchi.Branch   `json:"branch"`
	Name         string          `json:"name"`
	Domain       string          `json:"domain"`
	Element      almanac.Element `json:"element"`
	IsLifePalace bool            `json:"is_life_palace"`
	Stars        []Star          `json:"stars"`
}

// BirthInput describes a birth. Year, Month and Day are read in the calendar
// named by Calendar; an empty Calendar means solar. Leap only applies to lunar
// input.
type BirthInput struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Calendar  string `json:"calendar"`
	Leap      bool   `json:"leap"`
	HourIndex int    `json:"hour_index"`
	Gender    string `json:"gender"`
}

// SolarBirth is a convenience for a Gregorian birth date.
func SolarBirth(date time.Time, hourIndex int, gender string) BirthInput {
	return BirthInput{
		Year:      date.Year(),
		Month:     int(date.Month()),
		Day:       date.Day(),
		Calendar:  config.CalendarSolar,
		HourIndex: hourIndex,
		Gender:    gender,
	}
}

// ParseBirthDate reads a YYYY-MM-DD date into its fields without
// normalising it, so lunar dates such as 30/2 survive.
func ParseBirthDate(value string) (year, month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(value), config.DateSeparator)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %s: %q", ErrPrecondition, config.ErrDateParse, value)
	}
	var fields [3]int
	for i, p := range parts {
		if fields[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %s: %q", ErrPrecondition, config.ErrDateParse, value)
		}
	}
	return fields[0], fields[1], fields[2], nil
}

// BirthChart is a complete natal chart. It is never modified after Build.
type BirthChart struct {
	Input              BirthInput                  `json:"input"`
	Solar              time.Time                   `json:"solar"`
	Lunar              lunar.Date                  `json:"lunar"`
	YearPair           canchi.Pair                 `json:"year_pair"`
	MonthPair          canchi.Pair                 `json:"month_pair"`
	DayPair            canchi.Pair                 `json:"day_pair"`
	HourPair           canchi.Pair                 `json:"hour_pair"`
	NapAm              almanac.NapAm               `json:"nap_am"`
	Polarity           string                      `json:"polarity"`
	LifePalacePosition int                         `json:"life_palace_position"`
	DestinyElement     almanac.Element             `json:"destiny_element"`
	DestinyName        string                      `json:"destiny_name"`
	Palaces            [PalaceCount]Palace         `json:"palaces"`
	MajorStars         []PlacedStar                `json:"major_stars"`
	Analysis           [PalaceCount]PalaceAnalysis `json:"analysis"`
}

// LifePalace returns the palace holding Mệnh.
func (c BirthChart) LifePalace() Palace {
	return c.Palaces[c.LifePalacePosition]
}

// Builder builds charts using a lunar calendar converter.
type Builder struct {
	conv lunar.Converter
}

// NewBuilder returns a Builder backed by conv.
func NewBuilder(conv lunar.Converter) *Builder {
	return &Builder{conv: conv}
}

// Build validates in and computes its chart.
func (b *Builder) Build(in BirthInput) (BirthChart, error) {
	if err := checkInput(in); err != nil {
		return BirthChart{}, err
	}
	solar, lun, err := b.resolve(in)
	if err != nil {
		return BirthChart{}, err
	}

	yearPair := canchi.YearPair(lun.Year)
	napAm, err := almanac.LookupNapAm(yearPair)
	if err != nil {
		return BirthChart{}, err
	}
	dayPair := canchi.DayPair(solar)

	chart := BirthChart{
		Input:              in,
		Solar:              solar,
		Lunar:              lun,
		YearPair:           yearPair,
		MonthPair:          canchi.MonthPair(lun.Year, lun.Month),
		DayPair:            dayPair,
		HourPair:           canchi.HourPair(dayPair.Stem, canchi.Branch(in.HourIndex)),
		NapAm:              napAm,
		Polarity:           polarity(yearPair.Stem, in.Gender),
		LifePalacePosition: LifePalacePosition(lun.Month, in.HourIndex),
		DestinyElement:     DestinyElementFor(lun.Year, lun.Month),
	}
	chart.DestinyName = DestinyName(chart.DestinyElement)
	chart.Palaces = palaceRing(chart.LifePalacePosition)

	anchor := AnchorStarPosition(chart.DestinyElement, lun.Day)
	chart.MajorStars = placeGroup(&chart.Palaces, anchor, majorStars)
	placeGroup(&chart.Palaces, in.HourIndex, minorStars)
	placeGroup(&chart.Palaces, lun.Year, maleficStars)

	for i, p := range chart.Palaces {
		chart.Analysis[i] = AnalyzePalace(p)
	}
	return chart, nil
}

// resolve returns both calendar forms of the birth date.
func (b *Builder) resolve(in BirthInput) (time.Time, lunar.Date, error) {
	if in.Calendar == config.CalendarLunar {
		lun := lunar.Date{Day: in.Day, Month: in.Month, Year: in.Year, Leap: in.Leap}
		solar, err := b.conv.ToSolar(lun)
		if err != nil {
			return time.Time{}, lunar.Date{}, fmt.Errorf("%w: %w", ErrPrecondition, err)
		}
		return solar, lun, nil
	}

	solar := time.Date(in.Year, time.Month(in.Month), in.Day, 0, 0, 0, 0, time.UTC)
	if solar.Year() != in.Year || int(solar.Month()) != in.Month || solar.Day() != in.Day {
		return time.Time{}, lunar.Date{}, fmt.Errorf("%w: %s %04d-%02d-%02d", ErrPrecondition, config.ErrDateInvalid, in.Year, in.Month, in.Day)
	}
	lun, err := b.conv.ToLunar(solar)
	if err != nil {
		return time.Time{}, lunar.Date{}, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return solar, lun, nil
}

func checkInput(in BirthInput) error {
	if in.HourIndex < config.MinHourIndex || in.HourIndex > config.MaxHourIndex {
		return fmt.Errorf("%w: %s (%d)", ErrPrecondition, config.ErrHourIndex, in.HourIndex)
	}
	if in.Gender != config.GenderMale && in.Gender != config.GenderFemale {
		return fmt.Errorf("%w: %s (%q)", ErrPrecondition, config.ErrGender, in.Gender)
	}
	switch in.Calendar {
	case "", config.CalendarSolar:
		if in.Leap {
			return fmt.Errorf("%w: %s", ErrPrecondition, config.ErrLeapSolar)
		}
	case config.CalendarLunar:
	default:
		return fmt.Errorf("%w: %s (%q)", ErrPrecondition, config.ErrCalendarType, in.Calendar)
	}
	if in.Year <= 0 {
		return fmt.Errorf("%w: %s", ErrPrecondition, config.ErrDateInvalid)
	}
	return nil
}

// LifePalacePosition places Mệnh from the lunar month and the birth hour index.
func LifePalacePosition(lunarMonth, hourIndex int) int {
	return mod(lunarMonth+hourIndex-1, PalaceCount)
}

// DestinyElementFor returns the chart element for a lunar year and month.
// Keys outside the table fall back to Earth.
func DestinyElementFor(lunarYear, lunarMonth int) almanac.Element {
	return destinyForKey((lunarYear%10 + lunarMonth) % 12)
}

func destinyForKey(key int) almanac.Element {
	if e, ok := destinyByKey[key]; ok {
		return e
	}
	return almanac.Earth
}

// DestinyName renders the Cục of an element, e.g. "Thủy Nhị Cục".
func DestinyName(e almanac.Element) string {
	return string(e) + " " + cucNames[weightOf(e)]
}

// AnchorStarPosition is the palace of Tử Vi.
func AnchorStarPosition(e almanac.Element, lunarDay int) int {
	return mod(weightOf(e)+lunarDay-1, PalaceCount)
}

func weightOf(e almanac.Element) int {
	if w, ok := elementWeight[e]; ok {
		return w
	}
	return elementWeight[almanac.Earth]
}

// palaceRing lays out the twelve palaces with Mệnh at life.
func palaceRing(life int) [PalaceCount]Palace {
	var ring [PalaceCount]Palace
	for pos := range ring {
		m := meaningRing[mod(pos-life, PalaceCount)]
		b := canchi.Branch(pos)
		ring[pos] = Palace{
			Position:     pos,
			Branch:       b,
			Name:         m.name,
			Domain:       m.domain,
			Element:      almanac.BranchElement(b),
			IsLifePalace: pos == life,
			Stars:        []Star{},
		}
	}
	return ring
}

// polarity labels a chart "Dương Nam", "Âm Nữ" and so on.
func polarity(yearStem canchi.Stem, gender string) string {
	p := config.PolarityYin
	if yearStem.IsYang() {
		p = config.PolarityYang
	}
	g := config.LabelFemale
	if gender == config.GenderMale {
		g = config.LabelMale
	}
	return p + " " + g
}
