// Package contacts reads birthdays from a vCard address book and annotates
// each person with the Can Chi of the birth year, the Nạp Âm element and the
// next Gregorian and lunar birthdays.
package contacts

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/lunar"
	"github.com/zalando/go-keyring"
)

// Source selects the address book.
type Source struct {
	Mode      string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath string
	WebURL    string
	WebUser   string
	WebPass   string
}

// Person is one contact with a usable BDAY field.
type Person struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	YearKnown bool      `json:"year_known"`

	// NextSolar is the next Gregorian anniversary, today included.
	NextSolar time.Time `json:"next_solar"`

	// The fields below are only set when YearKnown is true.
	Lunar     lunar.Date    `json:"lunar"`
	YearPair  canchi.Pair   `json:"year_pair"`
	NapAm     almanac.NapAm `json:"nap_am"`
	NextLunar time.Time     `json:"next_lunar"`
}

// Loader reads and annotates contacts.
type Loader struct {
	Fetcher   Fetcher
	Clock     engine.Clock
	Converter lunar.Converter
}

// Load reads the address book and returns the people with a birthday,
// sorted by their next Gregorian birthday.
func (l *Loader) Load(ctx context.Context, src Source) ([]Person, error) {
	reader, err := l.open(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = reader.Close() }()

	people, err := l.decode(ctx, reader)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(people, func(i, j int) bool { return people[i].NextSolar.Before(people[j].NextSolar) })
	return people, nil
}

func (l *Loader) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	switch src.Mode {
	case config.SourceModeLocal:
		if src.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(src.LocalPath)
	case config.SourceModeWeb:
		if src.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if l.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return l.Fetcher.Fetch(ctx, src.WebURL, src.WebUser, src.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, src.Mode)
	}
}

func (l *Loader) decode(ctx context.Context, r io.Reader) ([]Person, error) {
	now := l.Clock.Now()
	decoder := vcard.NewDecoder(r)
	total := 0
	var people []Person

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		if err != nil {
			// A single broken card must not hide the rest of the book.
			slog.WarnContext(ctx, config.MsgSkippedCard,
				config.LogKeyComponent, config.CompContacts,
				config.LogKeyError, err)
			continue
		}
		total++

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}
		birth, yearKnown, err := ParseBirthday(bday.Value)
		if err != nil {
			slog.DebugContext(ctx, config.MsgSkippedDate,
				config.LogKeyComponent, config.CompContacts,
				config.LogKeyValue, bday.Value)
			continue
		}

		people = append(people, l.annotate(cardName(card), birth, yearKnown, now))
	}

	slog.InfoContext(ctx, config.MsgContactsLoaded,
		config.LogKeyComponent, config.CompContacts,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, total),
			slog.Int(config.LogKeyFound, len(people)),
		),
	)
	return people, nil
}

// cardName prefers FN over N.
func cardName(card vcard.Card) string {
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		return fn.Value
	}
	if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		return n.Value
	}
	return config.FallbackName
}

func (l *Loader) annotate(name string, birth time.Time, yearKnown bool, now time.Time) Person {
	input := fmt.Sprintf(config.FormatHashInput, name, birth.Format(time.RFC3339), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))

	p := Person{
		UID:       fmt.Sprintf("%x", hash[:config.UIDHashLength]),
		Name:      name,
		BirthDate: birth,
		YearKnown: yearKnown,
		NextSolar: NextOccurrence(now, birth),
	}
	if !yearKnown || l.Converter == nil {
		return p
	}

	ld, err := l.Converter.ToLunar(birth)
	if err != nil {
		// Birth dates outside the lunar table keep their Gregorian data only.
		return p
	}
	p.Lunar = ld
	p.YearPair = canchi.YearPair(ld.Year)
	if n, err := almanac.LookupNapAm(p.YearPair); err == nil {
		p.NapAm = n
	}
	if next, ok := NextLunarOccurrence(l.Converter, now, ld); ok {
		p.NextLunar = next
	}
	return p
}

// NextOccurrence returns the next Gregorian anniversary of birth on or after
// the calendar date of now, in now's location. 29 February rolls over to
// 1 March in common years.
func NextOccurrence(now, birth time.Time) time.Time {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	candidate := time.Date(now.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(today) {
		candidate = time.Date(now.Year()+1, birth.Month(), birth.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// NextLunarOccurrence returns the Gregorian date of the next anniversary of a
// lunar birth day on or after now. Birthdays in a leap month are kept in the
// regular month of the same number, and day 30 falls back to day 29 in short
// months, as families usually do.
func NextLunarOccurrence(conv lunar.Converter, now time.Time, birth lunar.Date) (time.Time, bool) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	current, err := conv.ToLunar(today)
	if err != nil {
		return time.Time{}, false
	}
	for year := current.Year; year <= current.Year+1; year++ {
		t, err := conv.ToSolar(lunar.Date{Day: birth.Day, Month: birth.Month, Year: year})
		if err != nil && birth.Day == 30 {
			t, err = conv.ToSolar(lunar.Date{Day: 29, Month: birth.Month, Year: year})
		}
		if err != nil {
			continue
		}
		if !t.Before(today) {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBirthday reads the vCard BDAY formats. Dates without a year are
// placed in a leap year so 29 February survives.
func ParseBirthday(value string) (time.Time, bool, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return t, true, nil
		}
	}

	for _, f := range []string{config.DateFormatNoYearD, config.DateFormatNoYearB} {
		if t, err := time.Parse(f, value); err == nil {
			return time.Date(config.DefaultLeapYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}

// Password reads the address-book password of user from the OS keyring.
// A missing entry is not an error: the request is simply sent without it.
func Password(user string) string {
	if user == "" {
		return ""
	}
	pass, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyComponent, config.CompContacts,
			config.LogKeyUser, user,
			config.LogKeyError, err)
		return ""
	}
	return pass
}
