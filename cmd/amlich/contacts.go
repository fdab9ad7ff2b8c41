package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/contacts"
)

func (a *app) contactsCommand() *cobra.Command {
	var vcardPath, url, user string
	cmd := &cobra.Command{
		Use:   config.CmdContacts,
		Short: config.ShortContacts,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := a.source(vcardPath, url, user)
			loader := &contacts.Loader{
				Fetcher:   contacts.NewHTTPFetcher(a.settings.Contacts.MaxBytes),
				Clock:     a.clock,
				Converter: a.conv,
			}
			people, err := loader.Load(cmd.Context(), src)
			if err != nil {
				return err
			}

			// Clashes are read against today's day branch.
			id, err := almanac.Identify(a.conv, a.clock.Now())
			if err != nil {
				return err
			}
			today, err := almanac.Describe(id)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, strings.Join([]string{
				a.t(config.TKeyColName), a.t(config.TKeyColBirth), a.t(config.TKeyColCanChi),
				a.t(config.TKeyColNapAm), a.t(config.TKeyColDate), a.t(config.TKeyColLunar), a.t(config.TKeyColConflict),
			}, "\t"))
			for _, p := range people {
				row := []string{
					p.Name,
					p.BirthDate.Format(config.DateFormatFullDash),
					config.EmptyCell,
					config.EmptyCell,
					p.NextSolar.Format(config.DateFormatFullDash),
					config.EmptyCell,
					config.EmptyCell,
				}
				if p.YearKnown && p.YearPair.Valid() {
					row[2] = p.YearPair.String()
					row[3] = p.NapAm.Name
					if !p.NextLunar.IsZero() {
						row[5] = p.NextLunar.Format(config.DateFormatFullDash)
					}
					row[6] = a.t(config.TKeyLblNo)
					if today.InConflict(p.Lunar.Year) {
						row[6] = a.t(config.TKeyLblYes)
					}
				} else {
					row[1] = p.BirthDate.Format(config.DateFormatNoYearD)
				}
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			return w.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&vcardPath, config.FlagVCard, "", config.FlagDescVCard)
	fl.StringVar(&url, config.FlagURL, "", config.FlagDescURL)
	fl.StringVar(&user, config.FlagUser, "", config.FlagDescUser)
	cmd.MarkFlagsMutuallyExclusive(config.FlagVCard, config.FlagURL)
	return cmd
}

// source merges the address-book flags over the settings. The password of a
// web source comes from the OS keyring.
func (a *app) source(vcardPath, url, user string) contacts.Source {
	s := a.settings.Contacts
	src := contacts.Source{
		Mode:      s.Mode,
		LocalPath: s.Path,
		WebURL:    s.URL,
		WebUser:   s.User,
	}
	switch {
	case vcardPath != "":
		src.Mode = config.SourceModeLocal
		src.LocalPath = vcardPath
	case url != "":
		src.Mode = config.SourceModeWeb
		src.WebURL = url
	}
	if user != "" {
		src.WebUser = user
	}
	if src.Mode == config.SourceModeWeb {
		src.WebPass = contacts.Password(src.WebUser)
	}
	return src
}
