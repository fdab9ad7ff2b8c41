package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-amlich/internal/config"
)

// FeedConfig describes the good-day calendar feed.
type FeedConfig struct {
	Activities      []string
	WindowDays      int // days from today, today included
	BirthYear       *int
	MinScore        int
	MaxResults      int
	ReminderTrigger string // ISO8601 duration, e.g. "-P1D"; empty disables alarms
}

// FeedGenerator turns a good-day search into an iCalendar document.
type FeedGenerator struct {
	Engine *Engine
	Clock  Clock
	Text   Localizer
}

// Generate searches the window starting today and encodes the good days as
// all-day events. It returns the ICS bytes and the number of events.
func (g *FeedGenerator) Generate(ctx context.Context, cfg FeedConfig) ([]byte, int, error) {
	if len(cfg.Activities) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrNoActivitiesFeed)
	}
	if cfg.WindowDays <= 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrFeedWindow)
	}

	now := g.Clock.Now()
	start := Today(g.Clock)
	q := SearchQuery{
		Activities: cfg.Activities,
		Start:      start,
		End:        start.AddDate(0, 0, cfg.WindowDays-1),
		BirthYear:  cfg.BirthYear,
		MinScore:   cfg.MinScore,
		MaxResults: cfg.MaxResults,
	}
	if q.MaxResults <= 0 {
		q.MaxResults = cfg.WindowDays
	}

	days, err := g.Engine.FindGoodDays(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	if len(days) == 0 {
		var buf bytes.Buffer
		buf.WriteString(config.StubVCalendar)
		g.logSuccess(ctx, cfg.WindowDays, 0)
		return buf.Bytes(), 0, nil
	}

	// Calendar clients list events by date; the search ranks them by score.
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, g.Text.Text(config.TKeyFeedName, nil))
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	key := strings.Join(cfg.Activities, config.InputSeparator)
	for _, d := range days {
		event := g.createEvent(d, key, q.MinScore, cfg.ReminderTrigger)
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(ctx, cfg.WindowDays, len(days))
	return buf.Bytes(), len(days), nil
}

// createEvent builds the all-day event of one good day. The UID is derived
// from the date and the activity set so it survives feed rebuilds.
func (g *FeedGenerator) createEvent(d DayRating, activityKey string, minScore int, trigger string) *ical.Event {
	input := fmt.Sprintf(config.FormatHashInput, d.Date.Format(config.DateFormatFullDash), activityKey, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	uid := fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)

	var names []string
	for _, a := range d.Activities {
		if a.Score >= minScore {
			names = append(names, a.Name)
		}
	}
	summary := g.Text.Text(config.TKeyFeedSummary, map[string]any{
		"Activities": strings.Join(names, config.ListSeparator),
		"Score":      d.Score,
	})

	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, uid)
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropDescription, g.Text.Text(config.TKeyFeedDescription, map[string]any{
		"Lunar":   d.Lunar.String(),
		"Day":     d.Day.String(),
		"Month":   d.Month.String(),
		"Year":    d.Year.String(),
		"Officer": d.Officer.Name,
		"Zodiac":  d.Zodiac.Name,
		"Hours":   branchNames(d.LuckyHours),
	}))
	event.Props.SetText(config.PropCategories, string(d.Quality))

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(d.Date)
	event.Props.Set(dtStartProp)

	if trigger != "" {
		addAlarm(event, trigger, summary)
	}
	return event
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the raw value so the encoder does not add VALUE=TEXT.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

func (g *FeedGenerator) logSuccess(ctx context.Context, window, count int) {
	slog.InfoContext(ctx, config.MsgFeedBuilt,
		config.LogKeyComponent, config.CompFeed,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyDays, window),
			slog.Int(config.LogKeyCount, count),
		),
	)
}

// ReminderTrigger renders an ISO8601 duration for an alarm n days from the
// event. Negative n fires before it; zero disables the alarm.
func ReminderTrigger(days int) string {
	switch {
	case days == config.DisabledInterval:
		return ""
	case days < 0:
		return fmt.Sprintf("%s%d%s", config.ISONegativePrefix, -days, config.ISODay)
	default:
		return fmt.Sprintf("%s%d%s", config.ISOPeriodPrefix, days, config.ISODay)
	}
}

// ParseDate reads a YYYY-MM-DD date or, failing that, an RFC 3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	for _, f := range []string{config.DateFormatFullDash, config.DateFormatRFC3339, config.DateFormatFullBasic} {
		if t, err := time.Parse(f, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s: %q", ErrPrecondition, config.ErrDateParse, value)
}
