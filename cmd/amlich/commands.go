package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
)

// -----------------------------------------------------------------------------
// Day & Analyze
// -----------------------------------------------------------------------------

type dayFlags struct {
	date       string
	activities []string
	birthYear  int
}

func (f *dayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, config.FlagDate, "", config.FlagDescDate)
	cmd.Flags().StringSliceVar(&f.activities, config.FlagActivities, nil, config.FlagDescActivities)
	cmd.Flags().IntVar(&f.birthYear, config.FlagBirthYear, 0, config.FlagDescBirthYear)
}

func (a *app) dayCommand() *cobra.Command {
	var f dayFlags
	cmd := &cobra.Command{
		Use:   config.CmdDay,
		Short: config.ShortDay,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, err := a.dateOrToday(f.date)
			if err != nil {
				return err
			}
			r, err := a.engine.RateDay(date, f.activities, birthYear(f.birthYear))
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			a.writeRating(w, r)
			if len(r.Activities) > 0 {
				fmt.Fprintf(w, config.FormatSection, strings.Join([]string{
					a.t(config.TKeyColActivity), a.t(config.TKeyColScore), a.t(config.TKeyColQuality), a.t(config.TKeyColReasons),
				}, "\t"))
				for _, s := range r.Activities {
					fmt.Fprintf(w, config.FormatAdvice, s.Name, s.Score, s.Quality, reasonList(s.Reasons))
				}
			}
			return w.Flush()
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) analyzeCommand() *cobra.Command {
	var f dayFlags
	cmd := &cobra.Command{
		Use:   config.CmdAnalyze,
		Short: config.ShortAnalyze,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, err := a.dateOrToday(f.date)
			if err != nil {
				return err
			}
			an, err := a.engine.DayAnalysis(date, f.activities, birthYear(f.birthYear))
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			a.writeRating(w, an.Rating)
			for _, section := range []struct {
				label string
				items []engine.Advice
			}{
				{a.t(config.TKeyLblRecommended), an.Recommended},
				{a.t(config.TKeyLblAvoid), an.Avoid},
			} {
				fmt.Fprintf(w, config.FormatSection, section.label)
				if len(section.items) == 0 {
					fmt.Fprintf(w, config.FormatAdvice, config.EmptyCell, 0, config.EmptyCell, config.EmptyCell)
					continue
				}
				for _, ad := range section.items {
					fmt.Fprintf(w, config.FormatAdvice, ad.Name, ad.Score, ad.Quality, ad.Reason)
				}
			}

			fmt.Fprintln(w)
			for _, line := range []string{an.Narrative.StemBranch, an.Narrative.Stars, an.Narrative.Zodiac, an.Narrative.Advice} {
				fmt.Fprintln(w, line)
			}
			return w.Flush()
		},
	}
	f.register(cmd)
	return cmd
}

// writeRating prints the identity block shared by day and analyze.
func (a *app) writeRating(w io.Writer, r engine.DayRating) {
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColDate), r.Date.Format(config.DateFormatFullDash))
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColLunar), r.Lunar.String())
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColCanChi),
		fmt.Sprintf(config.FormatTriple, r.Day, r.Month, r.Year))
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColNapAm), r.NapAm.Name)
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColScore),
		fmt.Sprintf(config.FormatScore, r.Score, r.Quality))
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyLblLuckyHours), branchList(r.LuckyHours))
	fmt.Fprintf(w, config.FormatField, a.t(config.TKeyColConflict), branchList(r.ConflictAges))
}

// -----------------------------------------------------------------------------
// Find
// -----------------------------------------------------------------------------

func (a *app) findCommand() *cobra.Command {
	var (
		from, to   string
		activities []string
		birth      int
		minScore   int
		maxResults int
	)
	cmd := &cobra.Command{
		Use:   config.CmdFind,
		Short: config.ShortFind,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := engine.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := engine.ParseDate(to)
			if err != nil {
				return err
			}

			q := engine.NewSearchQuery(activities, start, end)
			q.BirthYear = birthYear(birth)
			q.MinScore = a.settings.Engine.MinScore
			if cmd.Flags().Changed(config.FlagMinScore) {
				q.MinScore = minScore
			}
			q.MaxResults = a.settings.Engine.MaxResults
			if cmd.Flags().Changed(config.FlagMaxResults) {
				q.MaxResults = maxResults
			}

			days, err := a.engine.FindGoodDays(cmd.Context(), q)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, strings.Join([]string{
				a.t(config.TKeyColDate), a.t(config.TKeyColLunar), a.t(config.TKeyColCanChi),
				a.t(config.TKeyColScore), a.t(config.TKeyColQuality),
			}, "\t"))
			for _, d := range days {
				fmt.Fprintln(w, strings.Join([]string{
					d.Date.Format(config.DateFormatFullDash),
					d.Lunar.String(),
					d.Day.String(),
					strconv.Itoa(d.Score),
					string(d.Quality),
				}, "\t"))
			}
			return w.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&from, config.FlagFrom, "", config.FlagDescFrom)
	fl.StringVar(&to, config.FlagTo, "", config.FlagDescTo)
	fl.StringSliceVar(&activities, config.FlagActivities, nil, config.FlagDescActivities)
	fl.IntVar(&birth, config.FlagBirthYear, 0, config.FlagDescBirthYear)
	fl.IntVar(&minScore, config.FlagMinScore, config.DefaultMinScore, config.FlagDescMinScore)
	fl.IntVar(&maxResults, config.FlagMaxResults, config.DefaultMaxResults, config.FlagDescMaxResults)
	_ = cmd.MarkFlagRequired(config.FlagFrom)
	_ = cmd.MarkFlagRequired(config.FlagTo)
	_ = cmd.MarkFlagRequired(config.FlagActivities)
	return cmd
}

// -----------------------------------------------------------------------------
// Activities
// -----------------------------------------------------------------------------

func (a *app) activitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdActivities,
		Short: config.ShortActivities,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := newTable(cmd.OutOrStdout())
			for _, c := range engine.Categories {
				fmt.Fprintf(w, config.FormatSection, a.t(c.NameKey()))
				for _, act := range engine.ActivitiesIn(c) {
					fmt.Fprintf(w, config.FormatActivity, act.ID, a.t(act.NameKey()), act.BaseScore)
				}
			}
			return w.Flush()
		},
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, config.TabMinWidth, config.TabWidth, config.TabPadding, config.TabPadChar, 0)
}

func (a *app) t(key string) string { return a.text.Text(key, nil) }

// dateOrToday parses value, or returns today's civil date when it is empty.
func (a *app) dateOrToday(value string) (time.Time, error) {
	if value == "" {
		return engine.Today(a.clock), nil
	}
	return engine.ParseDate(value)
}

// birthYear maps the "0 disables" flag convention to an optional year.
func birthYear(y int) *int {
	if y == 0 {
		return nil
	}
	return &y
}

func branchList(bs []canchi.Branch) string {
	if len(bs) == 0 {
		return config.EmptyCell
	}
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.String()
	}
	return strings.Join(names, config.ListSeparator)
}

func reasonList(rs []engine.Reason) string {
	if len(rs) == 0 {
		return config.EmptyCell
	}
	texts := make([]string, len(rs))
	for i, r := range rs {
		texts[i] = r.Text
	}
	return strings.Join(texts, config.ListSeparator)
}
