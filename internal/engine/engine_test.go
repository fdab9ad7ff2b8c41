package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/lunar"
)

// MockConverter lets tests control the lunar date of any day.
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) ToLunar(t time.Time) (lunar.Date, error) {
	args := m.Called(t)
	return args.Get(0).(lunar.Date), args.Error(1)
}

func (m *MockConverter) ToSolar(d lunar.Date) (time.Time, error) {
	args := m.Called(d)
	return args.Get(0).(time.Time), args.Error(1)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

// allowZodiac lets cmp compare the lucky-hour table inside ZodiacStar.
var allowZodiac = cmp.AllowUnexported(almanac.ZodiacStar{})

func newEngine(opts ...engine.Option) *engine.Engine {
	return engine.New(lunar.NewVietnamese(), append([]engine.Option{engine.WithLocalizer(echo{})}, opts...)...)
}

// 2024-03-17 is 8/2 Giáp Thìn, a Canh Thìn day: officer Thành, Ngọc Đường,
// unlucky star Thụ Tử. 2024-02-16 is 7/1: officer Phá, Bạch Hổ, Thiên Hỷ
// against Tam Nương and Thụ Tử.
var (
	goodDay = day(2024, 3, 17)
	badDay  = day(2024, 2, 16)
)

func TestRateDay_Scenarios(t *testing.T) {
	e := newEngine()

	good, err := e.RateDay(goodDay, []string{"wedding"}, nil)
	require.NoError(t, err)
	bad, err := e.RateDay(badDay, []string{"wedding"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 77, good.Score)
	assert.Equal(t, engine.Good, good.Quality)
	assert.Equal(t, "Thành", good.Officer.Name)
	assert.True(t, good.ZodiacLucky)
	assert.Equal(t, lunar.Date{Day: 8, Month: 2, Year: 2024}, good.Lunar)
	assert.Equal(t, "Canh Thìn", good.Day.String())

	assert.Equal(t, 24, bad.Score)
	assert.Equal(t, engine.Terrible, bad.Quality)
	assert.Equal(t, "Phá", bad.Officer.Name)
	assert.False(t, bad.ZodiacLucky)
	assert.Len(t, bad.LuckyStars, 1)
	assert.Len(t, bad.UnluckyStars, 2)

	assert.Greater(t, good.Score, bad.Score)
}

func TestRateDay_AgeConflict(t *testing.T) {
	e := newEngine()

	// Tuất (1994) clashes with a Thìn day; Tý (1984) does not.
	clash, err := e.RateDay(goodDay, []string{"wedding"}, intp(1994))
	require.NoError(t, err)
	assert.Equal(t, 57, clash.Score)
	last := clash.Activities[0].Reasons[len(clash.Activities[0].Reasons)-1]
	assert.Equal(t, -20, last.Delta)

	calm, err := e.RateDay(goodDay, []string{"wedding"}, intp(1984))
	require.NoError(t, err)
	assert.Equal(t, 77, calm.Score)
}

func TestRateDay_MeanAndEmpty(t *testing.T) {
	e := newEngine()

	r, err := e.RateDay(goodDay, []string{"wedding", "haircut", "debt_collection"}, nil)
	require.NoError(t, err)
	require.Len(t, r.Activities, 3)
	assert.Equal(t, []int{77, 82, 65}, []int{r.Activities[0].Score, r.Activities[1].Score, r.Activities[2].Score})
	assert.Equal(t, 75, r.Score, "224/3 rounds to 75")

	empty, err := e.RateDay(goodDay, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, empty.Score)
	assert.Equal(t, engine.Neutral, empty.Quality)
	assert.Empty(t, empty.Activities)
}

func TestRateDay_Preconditions(t *testing.T) {
	e := newEngine()
	tests := []struct {
		name  string
		date  time.Time
		ids   []string
		birth *int
	}{
		{"zero date", time.Time{}, []string{"wedding"}, nil},
		{"empty id", goodDay, []string{"wedding", ""}, nil},
		{"unknown id", goodDay, []string{"bungee"}, nil},
		{"bad birth year", goodDay, []string{"wedding"}, intp(0)},
		{"out of range", day(1800, 1, 1), []string{"wedding"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RateDay(tt.date, tt.ids, tt.birth)
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrPrecondition)
		})
	}
}

func TestRateDay_ConverterFailures(t *testing.T) {
	conv := new(MockConverter)
	boom := errors.New("ephemeris unavailable")
	conv.On("ToLunar", day(2024, 1, 1)).Return(lunar.Date{}, boom)
	conv.On("ToLunar", day(2024, 1, 2)).Return(lunar.Date{Day: 8, Month: 2, Year: 2024}, nil)

	e := engine.New(conv, engine.WithLocalizer(echo{}))

	_, err := e.RateDay(day(2024, 1, 1), []string{"wedding"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, engine.ErrPrecondition)

	// The mocked lunar date drives officer and zodiac; the day pair comes from the JDN.
	r, err := e.RateDay(day(2024, 1, 2), []string{"wedding"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Thành", r.Officer.Name)
	assert.Equal(t, "Ngọc Đường", r.Zodiac.Name)
	conv.AssertExpectations(t)
}

func TestScoreActivity_ByID(t *testing.T) {
	e := newEngine()
	s, err := e.ScoreActivity("haircut", engine.ScoreInput{Officer: almanac.OfficerCycle[10], Zodiac: almanac.ZodiacCycle[0]})
	require.NoError(t, err)
	assert.Equal(t, 90, s.Score)
	assert.Equal(t, engine.Excellent, s.Quality)

	_, err = e.ScoreActivity("nope", engine.ScoreInput{})
	assert.ErrorIs(t, err, engine.ErrUnknownActivity)
}

// chronologicalQualifiers lists the qualifying days of a range one by one,
// as a reference for FindGoodDays.
func chronologicalQualifiers(t *testing.T, e *engine.Engine, q engine.SearchQuery) []engine.DayRating {
	t.Helper()
	var out []engine.DayRating
	for d := q.Start; !d.After(q.End); d = d.AddDate(0, 0, 1) {
		r, err := e.RateDay(d, q.Activities, q.BirthYear)
		require.NoError(t, err)
		if r.Score < q.MinScore {
			continue
		}
		for _, a := range r.Activities {
			if a.Score >= q.MinScore {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func TestFindGoodDays_FilterSortAndBound(t *testing.T) {
	e := newEngine()
	q := engine.NewSearchQuery([]string{"wedding", "moving_house"}, day(2024, 1, 1), day(2024, 12, 31))
	assert.Equal(t, 60, q.MinScore)
	assert.Equal(t, 30, q.MaxResults)

	q.MaxResults = 12
	got, err := e.FindGoodDays(context.Background(), q)
	require.NoError(t, err)

	ref := chronologicalQualifiers(t, e, q)
	require.Greater(t, len(ref), q.MaxResults, "the year has more good days than requested")
	require.Len(t, got, q.MaxResults)

	// Exactly the first MaxResults qualifying days, whatever their order.
	want := make(map[time.Time]bool)
	for _, r := range ref[:q.MaxResults] {
		want[r.Date] = true
	}
	for i, r := range got {
		assert.True(t, want[r.Date], "unexpected day %s", r.Date)
		assert.GreaterOrEqual(t, r.Score, q.MinScore)
		if i > 0 {
			prev := got[i-1]
			assert.GreaterOrEqual(t, prev.Score, r.Score, "sorted by score")
			if prev.Score == r.Score {
				assert.True(t, prev.Date.Before(r.Date), "ties keep calendar order")
			}
		}
	}
}

func TestFindGoodDays_IndependentOfWorkers(t *testing.T) {
	q := engine.NewSearchQuery([]string{"business_opening", "contract_signing"}, day(2023, 6, 1), day(2025, 5, 31))
	q.BirthYear = intp(1988)
	q.MaxResults = 200

	serial, err := newEngine(engine.WithWorkers(1)).FindGoodDays(context.Background(), q)
	require.NoError(t, err)
	parallel, err := newEngine(engine.WithWorkers(16)).FindGoodDays(context.Background(), q)
	require.NoError(t, err)

	require.NotEmpty(t, serial)
	if diff := cmp.Diff(serial, parallel, allowZodiac); diff != "" {
		t.Fatalf("results depend on worker count (-serial +parallel):\n%s", diff)
	}
}

func TestFindGoodDays_NothingQualifies(t *testing.T) {
	e := newEngine()

	q := engine.NewSearchQuery([]string{"debt_collection"}, day(2024, 2, 16), day(2024, 2, 16))
	got, err := e.FindGoodDays(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	q = engine.NewSearchQuery(nil, day(2024, 1, 1), day(2024, 1, 31))
	got, err = e.FindGoodDays(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, got, "no activity can reach the threshold")
}

func TestFindGoodDays_Preconditions(t *testing.T) {
	e := newEngine(engine.WithMaxSpanDays(31))
	base := engine.NewSearchQuery([]string{"wedding"}, day(2024, 1, 1), day(2024, 1, 31))

	tests := []struct {
		name   string
		mutate func(q *engine.SearchQuery)
	}{
		{"inverted", func(q *engine.SearchQuery) { q.Start, q.End = q.End, q.Start }},
		{"zero start", func(q *engine.SearchQuery) { q.Start = time.Time{} }},
		{"zero end", func(q *engine.SearchQuery) { q.End = time.Time{} }},
		{"too long", func(q *engine.SearchQuery) { q.End = day(2024, 2, 1) }},
		{"max results", func(q *engine.SearchQuery) { q.MaxResults = 0 }},
		{"min score high", func(q *engine.SearchQuery) { q.MinScore = 101 }},
		{"min score low", func(q *engine.SearchQuery) { q.MinScore = -1 }},
		{"bad activity", func(q *engine.SearchQuery) { q.Activities = []string{"wedding", ""} }},
		{"bad birth year", func(q *engine.SearchQuery) { q.BirthYear = intp(-5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			tt.mutate(&q)
			got, err := e.FindGoodDays(context.Background(), q)
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrPrecondition)
			assert.Nil(t, got)
		})
	}

	// A single-day range and a range of exactly the maximum span are accepted.
	q := base
	_, err := e.FindGoodDays(context.Background(), q)
	assert.NoError(t, err)
	q.End = q.Start
	_, err = e.FindGoodDays(context.Background(), q)
	assert.NoError(t, err)
}

func TestFindGoodDays_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := engine.NewSearchQuery([]string{"wedding"}, day(2024, 1, 1), day(2024, 12, 31))
	_, err := newEngine().FindGoodDays(ctx, q)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDayAnalysis(t *testing.T) {
	e := newEngine()
	ids := []string{"wedding", "haircut", "debt_collection"}

	good, err := e.DayAnalysis(goodDay, ids, nil)
	require.NoError(t, err)
	assert.Equal(t, 75, good.Rating.Score)
	require.Len(t, good.Recommended, 2)
	assert.Equal(t, "wedding", good.Recommended[0].ActivityID)
	assert.Equal(t, "haircut", good.Recommended[1].ActivityID)
	assert.Contains(t, good.Recommended[0].Reason, "reason_officer_good", "strongest positive modifier")
	assert.Empty(t, good.Avoid, "65 is neither recommended nor avoided")

	assert.Contains(t, good.Narrative.StemBranch, "narrative_stem_branch")
	assert.Contains(t, good.Narrative.StemBranch, "Canh Thìn")
	assert.Contains(t, good.Narrative.Stars, "narrative_stars_bad", "no lucky star against Thụ Tử")
	assert.Contains(t, good.Narrative.Zodiac, "narrative_zodiac_lucky")
	assert.Contains(t, good.Narrative.Advice, "advice_good")

	bad, err := e.DayAnalysis(badDay, ids, nil)
	require.NoError(t, err)
	assert.Empty(t, bad.Recommended)
	require.Len(t, bad.Avoid, 3)
	assert.Contains(t, bad.Avoid[0].Reason, "reason_officer_bad", "strongest negative modifier")
	assert.Contains(t, bad.Narrative.Zodiac, "narrative_zodiac_unlucky")
	assert.Contains(t, bad.Narrative.Advice, "advice_terrible")

	_, err = e.DayAnalysis(goodDay, []string{"??"}, nil)
	assert.ErrorIs(t, err, engine.ErrPrecondition)
}

func TestDayAnalysis_SingleModifier(t *testing.T) {
	// A Kiến day under Thanh Long with no stars: only the zodiac bonus applies.
	e := newEngine()
	a, err := e.DayAnalysis(day(2024, 2, 10), []string{"haircut"}, nil)
	require.NoError(t, err)
	require.Len(t, a.Recommended, 1)
	assert.Contains(t, a.Recommended[0].Reason, "reason_zodiac_lucky")
	assert.Contains(t, a.Narrative.Stars, "narrative_stars_mixed")
}

// TestDeterminism checks that repeated calls produce identical structures.
func TestDeterminism(t *testing.T) {
	e := newEngine()
	ids := []string{"wedding", "travel", "exam"}

	a1, err := e.DayAnalysis(goodDay, ids, intp(1990))
	require.NoError(t, err)
	a2, err := e.DayAnalysis(goodDay, ids, intp(1990))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a1, a2, allowZodiac))
}

func TestNew_DefaultLocalizerIsVietnamese(t *testing.T) {
	e := engine.New(lunar.NewVietnamese())
	r, err := e.RateDay(goodDay, []string{"wedding"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Cưới hỏi", r.Activities[0].Name)
	assert.Equal(t, "Trực Thành là trực tốt (+15)", r.Activities[0].Reasons[0].Text)
}
