package engine

import (
	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/config"
)

// Quality is the tier of a score.
type Quality string

const (
	Excellent Quality = "excellent"
	Good      Quality = "good"
	Neutral   Quality = "neutral"
	Bad       Quality = "bad"
	Terrible  Quality = "terrible"
)

// QualityOf buckets a score into its tier.
func QualityOf(score int) Quality {
	switch {
	case score >= config.ThresholdExcellent:
		return Excellent
	case score >= config.ThresholdGood:
		return Good
	case score >= config.ThresholdNeutral:
		return Neutral
	case score >= config.ThresholdBad:
		return Bad
	default:
		return Terrible
	}
}

// adviceKey maps a tier to its advice template.
var adviceKey = map[Quality]string{
	Excellent: config.TKeyAdviceExcellent,
	Good:      config.TKeyAdviceGood,
	Neutral:   config.TKeyAdviceNeutral,
	Bad:       config.TKeyAdviceBad,
	Terrible:  config.TKeyAdviceTerrible,
}

// Localizer renders a message template. *i18n.Translator satisfies it.
type Localizer interface {
	Text(id string, data map[string]any) string
}

// Reason is one applied modifier and its human-readable explanation.
type Reason struct {
	Text  string `json:"text"`
	Delta int    `json:"delta"`
}

// ActivityScore is the verdict for one activity on one day.
type ActivityScore struct {
	ActivityID string   `json:"activity_id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Score      int      `json:"score"`
	Quality    Quality  `json:"quality"`
	Reasons    []Reason `json:"reasons"`
}

// ScoreInput carries the day attributes that modify an activity score.
type ScoreInput struct {
	Officer      almanac.Officer
	Zodiac       almanac.ZodiacStar
	LuckyStars   []almanac.DayStar
	UnluckyStars []almanac.DayStar
	AgeConflict  bool
	BirthYear    int
}

// ScoreActivity applies the day modifiers to the activity base score.
// Modifiers run in a fixed order (officer, zodiac, lucky stars, unlucky
// stars, age conflict) and each one appends its reason, so the output is
// fully determined by the input.
func ScoreActivity(a Activity, in ScoreInput, text Localizer) ActivityScore {
	score := a.BaseScore
	reasons := make([]Reason, 0, 4)

	apply := func(delta int, key string, data map[string]any) {
		score += delta
		data["Delta"] = delta
		reasons = append(reasons, Reason{Text: text.Text(key, data), Delta: delta})
	}

	switch in.Officer.Quality {
	case almanac.Good:
		apply(config.ModOfficerGood, config.TKeyReasonOfficerGood, map[string]any{"Name": in.Officer.Name})
	case almanac.Bad:
		apply(config.ModOfficerBad, config.TKeyReasonOfficerBad, map[string]any{"Name": in.Officer.Name})
	}

	if in.Zodiac.Lucky {
		apply(config.ModZodiacLucky, config.TKeyReasonZodiacLucky, map[string]any{"Name": in.Zodiac.Name})
	} else {
		apply(config.ModZodiacUnlucky, config.TKeyReasonZodiacUnlucky, map[string]any{"Name": in.Zodiac.Name})
	}

	for _, s := range in.LuckyStars {
		apply(config.ModLuckyStar, config.TKeyReasonLuckyStar, map[string]any{"Name": s.Name})
	}
	for _, s := range in.UnluckyStars {
		apply(config.ModUnluckyStar, config.TKeyReasonUnluckyStar, map[string]any{"Name": s.Name})
	}

	if in.AgeConflict {
		apply(config.ModAgeConflict, config.TKeyReasonAgeConflict, map[string]any{"Year": in.BirthYear})
	}

	score = clampScore(score)
	return ActivityScore{
		ActivityID: a.ID,
		Name:       text.Text(a.NameKey(), nil),
		Category:   a.Category,
		Score:      score,
		Quality:    QualityOf(score),
		Reasons:    reasons,
	}
}

func clampScore(v int) int {
	return min(max(v, config.MinScore), config.MaxScore)
}
