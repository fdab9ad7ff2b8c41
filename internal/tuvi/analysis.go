package tuvi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
)

// Quality is the tier of a chart rating.
type Quality string

const (
	Excellent Quality = "excellent"
	Good      Quality = "good"
	Neutral   Quality = "neutral"
	Bad       Quality = "bad"
)

// Element relations between two charts.
const (
	RelationGenerating = "tương sinh"
	RelationDestroying = "tương khắc"
	RelationNeutral    = "bình hòa"
)

// QualityOf buckets a palace or year rating.
func QualityOf(rating int) Quality {
	switch {
	case rating >= config.PalaceExcellent:
		return Excellent
	case rating >= config.PalaceGood:
		return Good
	case rating >= config.PalaceNeutral:
		return Neutral
	default:
		return Bad
	}
}

// PalaceAnalysis is the reading of one palace.
type PalaceAnalysis struct {
	Position       int     `json:"position"`
	Name           string  `json:"name"`
	Rating         int     `json:"rating"`
	Quality        Quality `json:"quality"`
	Interpretation string  `json:"interpretation"`
}

// AnalyzePalace rates a palace from the brightness of its stars.
func AnalyzePalace(p Palace) PalaceAnalysis {
	rating := config.PalaceBaseRating
	names := make([]string, 0, len(p.Stars))
	for _, s := range p.Stars {
		if s.Benefic {
			rating += s.Brightness * config.BeneficFactor
		} else {
			rating -= s.Brightness * config.MaleficFactor
		}
		names = append(names, s.Name)
	}
	rating = clamp(rating)

	present := config.NoStars
	if len(names) > 0 {
		present = strings.Join(names, config.ListSeparator)
	}
	return PalaceAnalysis{
		Position:       p.Position,
		Name:           p.Name,
		Rating:         rating,
		Quality:        QualityOf(rating),
		Interpretation: fmt.Sprintf(config.FormatInterpretation, p.Name, p.Domain, present),
	}
}

// YearlyFortune is the outlook of one Gregorian-numbered lunar year.
type YearlyFortune struct {
	Year          int         `json:"year"`
	YearPair      canchi.Pair `json:"year_pair"`
	Age           int         `json:"age"`
	NominalAge    int         `json:"nominal_age"`
	Palace        Palace      `json:"palace"`
	Rating        int         `json:"rating"`
	Quality       Quality     `json:"quality"`
	LuckyMonths   []int       `json:"lucky_months"`
	UnluckyMonths []int       `json:"unlucky_months"`
}

// PredictYearlyFortune reads the palace the chart reaches in year. Years
// before the birth year are rejected.
func PredictYearlyFortune(c BirthChart, year int) (YearlyFortune, error) {
	age := year - c.Lunar.Year
	if age < 0 {
		return YearlyFortune{}, fmt.Errorf("%w: %s (%d < %d)", ErrPrecondition, config.ErrFortuneYear, year, c.Lunar.Year)
	}
	p := c.Palaces[mod(c.LifePalacePosition+age, PalaceCount)]

	rating := config.YearBaseRating
	for _, s := range p.Stars {
		if s.Benefic {
			rating += config.YearBeneficStep
		} else {
			rating -= config.YearMaleficStep
		}
	}
	rating = clamp(rating)

	f := YearlyFortune{
		Year:          year,
		YearPair:      canchi.YearPair(year),
		Age:           age,
		NominalAge:    age + 1,
		Palace:        p,
		Rating:        rating,
		Quality:       QualityOf(rating),
		LuckyMonths:   []int{},
		UnluckyMonths: []int{},
	}
	for m := 1; m <= 12; m++ {
		switch v := (rating + m*config.MonthStep) % 100; {
		case v >= config.MonthLucky:
			f.LuckyMonths = append(f.LuckyMonths, m)
		case v < config.MonthUnlucky:
			f.UnluckyMonths = append(f.UnluckyMonths, m)
		}
	}
	return f, nil
}

// Compatibility compares two charts.
type Compatibility struct {
	Score       int             `json:"score"`
	Quality     Quality         `json:"quality"`
	Relation    string          `json:"relation"`
	ElementA    almanac.Element `json:"element_a"`
	ElementB    almanac.Element `json:"element_b"`
	SharedStars []string        `json:"shared_stars"`
}

// CalculateCompatibility scores two charts by their destiny elements and the
// benefic stars their Life palaces have in common. The result does not
// depend on argument order.
func CalculateCompatibility(a, b BirthChart) Compatibility {
	ea, eb := a.DestinyElement, b.DestinyElement
	score := config.CompatBase
	relation := RelationNeutral
	if ea.Generates(eb) || eb.Generates(ea) {
		score += config.CompatGeneration
		relation = RelationGenerating
	}
	if ea.Destroys(eb) || eb.Destroys(ea) {
		score += config.CompatDestruction
		relation = RelationDestroying
	}

	shared := sharedBenefic(a.LifePalace(), b.LifePalace())
	score = clamp(score + len(shared)*config.CompatSharedStar)

	return Compatibility{
		Score:       score,
		Quality:     compatQuality(score),
		Relation:    relation,
		ElementA:    ea,
		ElementB:    eb,
		SharedStars: shared,
	}
}

// sharedBenefic returns the names of benefic stars present in both palaces,
// sorted.
func sharedBenefic(a, b Palace) []string {
	inA := make(map[string]bool, len(a.Stars))
	for _, s := range a.Stars {
		if s.Benefic {
			inA[s.ID] = true
		}
	}
	shared := []string{}
	for _, s := range b.Stars {
		if s.Benefic && inA[s.ID] {
			shared = append(shared, s.Name)
		}
	}
	sort.Strings(shared)
	return shared
}

func compatQuality(score int) Quality {
	switch {
	case score >= config.CompatExcellentFloor:
		return Excellent
	case score >= config.CompatGoodFloor:
		return Good
	case score >= config.CompatNeutralFloor:
		return Neutral
	default:
		return Bad
	}
}

func clamp(v int) int {
	return max(config.MinScore, min(config.MaxScore, v))
}
