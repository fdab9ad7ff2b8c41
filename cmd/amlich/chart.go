package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/tuvi"
)

// birthFlags are the flags describing one birth.
type birthFlags struct {
	date     string
	calendar string
	leap     bool
	hour     int
	gender   string
}

func (f *birthFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.date, config.FlagDate, "", config.FlagDescDate)
	fl.StringVar(&f.calendar, config.FlagCalendar, config.CalendarSolar, config.FlagDescCalendar)
	fl.BoolVar(&f.leap, config.FlagLeap, false, config.FlagDescLeap)
	fl.IntVar(&f.hour, config.FlagHour, config.MinHourIndex, config.FlagDescHour)
	fl.StringVar(&f.gender, config.FlagGender, "", config.FlagDescGender)
	_ = cmd.MarkFlagRequired(config.FlagDate)
	_ = cmd.MarkFlagRequired(config.FlagGender)
}

func (f *birthFlags) input() (tuvi.BirthInput, error) {
	y, m, d, err := tuvi.ParseBirthDate(f.date)
	if err != nil {
		return tuvi.BirthInput{}, err
	}
	return tuvi.BirthInput{
		Year:      y,
		Month:     m,
		Day:       d,
		Calendar:  f.calendar,
		Leap:      f.leap,
		HourIndex: f.hour,
		Gender:    f.gender,
	}, nil
}

// -----------------------------------------------------------------------------
// Chart
// -----------------------------------------------------------------------------

func (a *app) chartCommand() *cobra.Command {
	var (
		f    birthFlags
		year int
	)
	cmd := &cobra.Command{
		Use:   config.CmdChart,
		Short: config.ShortChart,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			chart, err := a.charts.Build(in)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			a.writeChart(w, chart)

			if year != 0 {
				fortune, err := tuvi.PredictYearlyFortune(chart, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, config.FormatSection, a.t(config.TKeyLblFortune))
				fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColCanChi),
					fmt.Sprintf(config.FormatYearPair, fortune.Year, fortune.YearPair))
				fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColPalace), fortune.Palace.Name)
				fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColRating),
					fmt.Sprintf(config.FormatScore, fortune.Rating, fortune.Quality))
				fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblLuckyMonths), monthList(fortune.LuckyMonths))
				fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblBadMonths), monthList(fortune.UnluckyMonths))
			}
			return w.Flush()
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&year, config.FlagYear, 0, config.FlagDescYear)
	return cmd
}

func (a *app) writeChart(w io.Writer, c tuvi.BirthChart) {
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColDate), c.Solar.Format(config.DateFormatFullDash))
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColLunar), c.Lunar.String())
	leap := config.EmptyCell
	if m := a.conv.LeapMonth(c.Lunar.Year); m != 0 {
		leap = strconv.Itoa(m)
	}
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblLeapMonth), leap)
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColCanChi),
		fmt.Sprintf(config.FormatTriple, c.YearPair, c.MonthPair, c.DayPair)+config.ListSeparator+c.HourPair.String())
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColNapAm), c.NapAm.Name)
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblDestiny), c.DestinyName)
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblLifePalace), c.LifePalace().Branch.String())
	fmt.Fprintln(w, c.Polarity)

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join([]string{
		config.ColPosition, a.t(config.TKeyColPalace), a.t(config.TKeyColCanChi), a.t(config.TKeyColStars), a.t(config.TKeyColRating),
	}, "\t"))
	for i, p := range c.Palaces {
		names := make([]string, len(p.Stars))
		for j, s := range p.Stars {
			names[j] = s.Name
		}
		stars := config.EmptyCell
		if len(names) > 0 {
			stars = strings.Join(names, config.ListSeparator)
		}
		fmt.Fprintf(w, config.FormatPalace, p.Position, p.Name, p.Branch, stars, c.Analysis[i].Rating)
	}
}

// -----------------------------------------------------------------------------
// Compatibility
// -----------------------------------------------------------------------------

func (a *app) compatCommand() *cobra.Command {
	var (
		f       birthFlags
		partner string
	)
	cmd := &cobra.Command{
		Use:   config.CmdCompat,
		Short: config.ShortCompat,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			other, err := parsePartner(partner, f.calendar)
			if err != nil {
				return err
			}

			first, err := a.charts.Build(in)
			if err != nil {
				return err
			}
			second, err := a.charts.Build(other)
			if err != nil {
				return err
			}
			c := tuvi.CalculateCompatibility(first, second)

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblCompat),
				fmt.Sprintf(config.FormatScore, c.Score, c.Quality))
			fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblDestiny),
				fmt.Sprintf(config.FormatElements, c.ElementA, c.ElementB, c.Relation))
			shared := config.EmptyCell
			if len(c.SharedStars) > 0 {
				shared = strings.Join(c.SharedStars, config.ListSeparator)
			}
			fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColStars), shared)
			return w.Flush()
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&partner, config.FlagPartner, "", config.FlagDescPartner)
	_ = cmd.MarkFlagRequired(config.FlagPartner)
	return cmd
}

// parsePartner reads "DATE,HOUR,GENDER". The date uses the same calendar as
// the first birth.
func parsePartner(value, calendar string) (tuvi.BirthInput, error) {
	parts := strings.Split(value, config.InputSeparator)
	if len(parts) != 3 {
		return tuvi.BirthInput{}, fmt.Errorf("%w: %s: %q", tuvi.ErrPrecondition, config.ErrPartnerFormat, value)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return tuvi.BirthInput{}, fmt.Errorf("%w: %s: %q", tuvi.ErrPrecondition, config.ErrPartnerFormat, value)
	}
	f := birthFlags{
		date:     strings.TrimSpace(parts[0]),
		calendar: calendar,
		hour:     hour,
		gender:   strings.TrimSpace(parts[2]),
	}
	return f.input()
}

func monthList(ms []int) string {
	if len(ms) == 0 {
		return config.EmptyCell
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = strconv.Itoa(m)
	}
	return strings.Join(out, config.ListSeparator)
}
