// Package engine scores Vietnamese almanac days for planned activities:
// per-activity scores with rationale, day ratings, good-day searches over a
// date range, and a narrative day analysis.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/i18n"
	"github.com/tartampluch/go-amlich/internal/lunar"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPrecondition marks a rejected call; nothing was computed.
	ErrPrecondition = errors.New(config.ErrPrecondition)

	// ErrUnknownActivity is wrapped with ErrPrecondition for ids outside the catalog.
	ErrUnknownActivity = errors.New(config.ErrUnknownActivity)
)

// DayRating is the scored almanac reading of one day.
type DayRating struct {
	Date         time.Time          `json:"date"`
	Lunar        lunar.Date         `json:"lunar"`
	Year         canchi.Pair        `json:"year_pair"`
	Month        canchi.Pair        `json:"month_pair"`
	Day          canchi.Pair        `json:"day_pair"`
	Score        int                `json:"score"`
	Quality      Quality            `json:"quality"`
	Activities   []ActivityScore    `json:"activities"`
	NapAm        almanac.NapAm      `json:"nap_am"`
	Officer      almanac.Officer    `json:"officer"`
	Zodiac       almanac.ZodiacStar `json:"zodiac"`
	ZodiacLucky  bool               `json:"zodiac_lucky"`
	LuckyHours   []canchi.Branch    `json:"lucky_hours"`
	LuckyStars   []almanac.DayStar  `json:"lucky_stars"`
	UnluckyStars []almanac.DayStar  `json:"unlucky_stars"`
	ConflictAges []canchi.Branch    `json:"conflict_ages"`
}

// Engine rates days. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	conv    lunar.Converter
	text    Localizer
	workers int
	maxSpan int
}

// Option customises an Engine.
type Option func(*Engine)

// WithLocalizer sets the renderer of reason and narrative texts.
func WithLocalizer(l Localizer) Option {
	return func(e *Engine) { e.text = l }
}

// WithWorkers bounds the number of days scored concurrently by FindGoodDays.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxSpanDays bounds the length of a FindGoodDays range.
func WithMaxSpanDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSpan = n
		}
	}
}

// New returns an Engine reading lunar dates from conv. Texts default to Vietnamese.
func New(conv lunar.Converter, opts ...Option) *Engine {
	e := &Engine{
		conv:    conv,
		workers: config.DefaultWorkers,
		maxSpan: config.DefaultMaxSpanDays,
	}
	for _, o := range opts {
		o(e)
	}
	if e.text == nil {
		e.text = i18n.MustTranslator(config.DefaultLanguage)
	}
	return e
}

// ScoreActivity scores the activity identified by id against the given day attributes.
func (e *Engine) ScoreActivity(id string, in ScoreInput) (ActivityScore, error) {
	a, err := LookupActivity(id)
	if err != nil {
		return ActivityScore{}, err
	}
	return ScoreActivity(a, in, e.text), nil
}

// RateDay scores each requested activity on date. The day score is the
// rounded mean of the activity scores, or 50 when no activity is requested.
func (e *Engine) RateDay(date time.Time, activityIDs []string, birthYear *int) (DayRating, error) {
	if err := checkDate(date); err != nil {
		return DayRating{}, err
	}
	if err := checkBirthYear(birthYear); err != nil {
		return DayRating{}, err
	}
	acts, err := resolve(activityIDs)
	if err != nil {
		return DayRating{}, err
	}
	return e.rate(date, acts, birthYear)
}

func (e *Engine) rate(date time.Time, acts []Activity, birthYear *int) (DayRating, error) {
	id, err := almanac.Identify(e.conv, date)
	if err != nil {
		if errors.Is(err, lunar.ErrOutOfRange) || errors.Is(err, lunar.ErrInvalidDate) {
			return DayRating{}, fmt.Errorf("%w: %w", ErrPrecondition, err)
		}
		return DayRating{}, err
	}
	attrs, err := almanac.Describe(id)
	if err != nil {
		return DayRating{}, err
	}

	in := ScoreInput{
		Officer:      attrs.Officer,
		Zodiac:       attrs.Zodiac,
		LuckyStars:   attrs.LuckyStars,
		UnluckyStars: attrs.UnluckyStars,
	}
	if birthYear != nil {
		in.BirthYear = *birthYear
		in.AgeConflict = attrs.InConflict(*birthYear)
	}

	scores := make([]ActivityScore, 0, len(acts))
	sum := 0
	for _, a := range acts {
		s := ScoreActivity(a, in, e.text)
		sum += s.Score
		scores = append(scores, s)
	}

	score := config.DefaultDayScore
	if len(scores) > 0 {
		score = int(math.Round(float64(sum) / float64(len(scores))))
	}

	return DayRating{
		Date:         id.Solar,
		Lunar:        id.Lunar,
		Year:         id.Year,
		Month:        id.Month,
		Day:          id.Day,
		Score:        score,
		Quality:      QualityOf(score),
		Activities:   scores,
		NapAm:        attrs.NapAm,
		Officer:      attrs.Officer,
		Zodiac:       attrs.Zodiac,
		ZodiacLucky:  attrs.Zodiac.Lucky,
		LuckyHours:   attrs.LuckyHours,
		LuckyStars:   attrs.LuckyStars,
		UnluckyStars: attrs.UnluckyStars,
		ConflictAges: attrs.ConflictBranches,
	}, nil
}

// SearchQuery parameterises FindGoodDays.
type SearchQuery struct {
	Activities []string
	Start      time.Time
	End        time.Time // inclusive
	BirthYear  *int
	MinScore   int
	MaxResults int
}

// NewSearchQuery returns a query with the default thresholds.
func NewSearchQuery(activities []string, start, end time.Time) SearchQuery {
	return SearchQuery{
		Activities: activities,
		Start:      start,
		End:        end,
		MinScore:   config.DefaultMinScore,
		MaxResults: config.DefaultMaxResults,
	}
}

// FindGoodDays walks the inclusive range one day at a time. A day qualifies
// when its score and at least one of its activity scores reach MinScore.
// The first MaxResults qualifying days, in calendar order, are returned
// sorted by score descending; equal scores keep calendar order.
func (e *Engine) FindGoodDays(ctx context.Context, q SearchQuery) ([]DayRating, error) {
	start, days, err := e.checkQuery(q)
	if err != nil {
		return nil, err
	}
	acts, err := resolve(q.Activities)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	kept := make([]DayRating, 0, min(days, q.MaxResults))
	if len(acts) == 0 {
		return kept, nil
	}

	batch := e.workers * 8
	scanned := 0
	for from := 0; from < days && len(kept) < q.MaxResults; from += batch {
		to := min(from+batch, days)
		ratings, err := e.rateRange(ctx, start, from, to, acts, q.BirthYear)
		if err != nil {
			return nil, err
		}
		scanned = to
		for _, r := range ratings {
			if !qualifies(r, q.MinScore) {
				continue
			}
			kept = append(kept, r)
			if len(kept) == q.MaxResults {
				break
			}
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	slog.DebugContext(ctx, config.MsgSearchDone,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyFrom, start.Format(config.DateFormatFullDash),
		config.LogKeyDays, scanned,
		config.LogKeyKept, len(kept),
		config.LogKeyWorkers, e.workers,
		config.LogKeyDuration, time.Since(began).Milliseconds(),
	)
	return kept, nil
}

// rateRange rates the days at offsets [from, to) from start on the worker pool.
// Results are stored by offset so their order does not depend on scheduling.
func (e *Engine) rateRange(ctx context.Context, start time.Time, from, to int, acts []Activity, birthYear *int) ([]DayRating, error) {
	out := make([]DayRating, to-from)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := from; i < to; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.rate(start.AddDate(0, 0, i), acts, birthYear)
			if err != nil {
				return err
			}
			out[i-from] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func qualifies(r DayRating, minScore int) bool {
	if r.Score < minScore {
		return false
	}
	for _, a := range r.Activities {
		if a.Score >= minScore {
			return true
		}
	}
	return false
}

// checkQuery validates q and returns its normalised start day and length.
func (e *Engine) checkQuery(q SearchQuery) (time.Time, int, error) {
	if err := checkDate(q.Start); err != nil {
		return time.Time{}, 0, err
	}
	if err := checkDate(q.End); err != nil {
		return time.Time{}, 0, err
	}
	if err := checkBirthYear(q.BirthYear); err != nil {
		return time.Time{}, 0, err
	}
	if q.MinScore < config.MinScore || q.MinScore > config.MaxScore {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrMinScore)
	}
	if q.MaxResults <= 0 {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrMaxResults)
	}

	start, end := civilDay(q.Start), civilDay(q.End)
	if end.Before(start) {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrRangeInverted)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > e.maxSpan {
		return time.Time{}, 0, fmt.Errorf("%w: %s (%d > %d)", ErrPrecondition, config.ErrRangeTooLong, days, e.maxSpan)
	}
	return start, days, nil
}

// Advice is one entry of the recommended or avoid lists.
type Advice struct {
	ActivityID string  `json:"activity_id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Quality    Quality `json:"quality"`
	Reason     string  `json:"reason"`
}

// Narrative holds the four summary texts of a day analysis.
type Narrative struct {
	StemBranch string `json:"stem_branch"`
	Stars      string `json:"stars"`
	Zodiac     string `json:"zodiac"`
	Advice     string `json:"advice"`
}

// DayAnalysis is a DayRating with its activities split into recommended and
// avoid lists plus narrative summaries.
type DayAnalysis struct {
	Rating      DayRating `json:"rating"`
	Recommended []Advice  `json:"recommended"`
	Avoid       []Advice  `json:"avoid"`
	Narrative   Narrative `json:"narrative"`
}

// DayAnalysis rates date and explains the result.
func (e *Engine) DayAnalysis(date time.Time, activityIDs []string, birthYear *int) (DayAnalysis, error) {
	r, err := e.RateDay(date, activityIDs, birthYear)
	if err != nil {
		return DayAnalysis{}, err
	}

	out := DayAnalysis{
		Rating:      r,
		Recommended: []Advice{},
		Avoid:       []Advice{},
	}
	for _, s := range r.Activities {
		switch {
		case s.Score >= config.RecommendScore:
			out.Recommended = append(out.Recommended, e.advice(s, true))
		case s.Score < config.AvoidScore:
			out.Avoid = append(out.Avoid, e.advice(s, false))
		}
	}
	out.Narrative = e.narrate(r)
	return out, nil
}

// advice picks the strongest reason in the wanted direction; the earliest
// one wins a tie.
func (e *Engine) advice(s ActivityScore, positive bool) Advice {
	best := -1
	for i, r := range s.Reasons {
		if positive && r.Delta > 0 && (best < 0 || r.Delta > s.Reasons[best].Delta) {
			best = i
		}
		if !positive && r.Delta < 0 && (best < 0 || r.Delta < s.Reasons[best].Delta) {
			best = i
		}
	}
	reason := e.text.Text(config.TKeyReasonNone, nil)
	if best >= 0 {
		reason = s.Reasons[best].Text
	}
	return Advice{
		ActivityID: s.ActivityID,
		Name:       s.Name,
		Score:      s.Score,
		Quality:    s.Quality,
		Reason:     reason,
	}
}

func (e *Engine) narrate(r DayRating) Narrative {
	var n Narrative

	n.StemBranch = e.text.Text(config.TKeyNarrStemBranch, map[string]any{
		"Lunar": r.Lunar.String(),
		"Day":   r.Day.String(),
		"Month": r.Month.String(),
		"Year":  r.Year.String(),
		"NapAm": r.NapAm.Name,
	})

	starKey := config.TKeyNarrStarsMixed
	switch {
	case len(r.LuckyStars) > len(r.UnluckyStars):
		starKey = config.TKeyNarrStarsGood
	case len(r.LuckyStars) < len(r.UnluckyStars):
		starKey = config.TKeyNarrStarsBad
	}
	n.Stars = e.text.Text(starKey, map[string]any{
		"Lucky":        len(r.LuckyStars),
		"Unlucky":      len(r.UnluckyStars),
		"LuckyNames":   starNames(r.LuckyStars),
		"UnluckyNames": starNames(r.UnluckyStars),
	})

	zodiacKey := config.TKeyNarrZodiacUnlucky
	if r.ZodiacLucky {
		zodiacKey = config.TKeyNarrZodiacLucky
	}
	n.Zodiac = e.text.Text(zodiacKey, map[string]any{
		"Name":  r.Zodiac.Name,
		"Hours": branchNames(r.LuckyHours),
	})

	n.Advice = e.text.Text(adviceKey[QualityOf(r.Score)], map[string]any{"Score": r.Score})
	return n
}

func starNames(stars []almanac.DayStar) string {
	names := make([]string, len(stars))
	for i, s := range stars {
		names[i] = s.Name
	}
	return strings.Join(names, config.ListSeparator)
}

func branchNames(bs []canchi.Branch) string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.String()
	}
	return strings.Join(names, config.ListSeparator)
}

func resolve(ids []string) ([]Activity, error) {
	acts := make([]Activity, 0, len(ids))
	for _, id := range ids {
		a, err := LookupActivity(id)
		if err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}
	return acts, nil
}

func checkDate(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: %s", ErrPrecondition, config.ErrDateZero)
	}
	return nil
}

func checkBirthYear(y *int) error {
	if y != nil && *y <= 0 {
		return fmt.Errorf("%w: %s", ErrPrecondition, config.ErrBirthYear)
	}
	return nil
}

// civilDay drops the clock part of t, keeping its calendar date.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
