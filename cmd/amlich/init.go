package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/config"
)

// initCommand writes the effective settings (file, then environment) to the
// settings path so they can be edited by hand.
func (a *app) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   config.CmdInit,
		Short: config.ShortInit,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				_, err := os.Stat(a.settingsPath)
				if err == nil {
					return fmt.Errorf("%s: %s", config.ErrSettingsExist, a.settingsPath)
				}
				if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%s: %w", config.ErrSettingsRead, err)
				}
			}
			if err := a.settings.Save(a.settingsPath); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), config.MsgSettingsSaved, a.settingsPath)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, config.FlagForce, false, config.FlagDescForce)
	return cmd
}
