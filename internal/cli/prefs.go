package cli

import (
	"fmt"

	"github.com/diagnosis/pakbooking/internal/preferences"
	"github.com/spf13/cobra"
)

func (r *root) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change theme and language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := r.app.Prefs
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", p.T("prefs.theme"), p.Theme())
			fmt.Fprintf(out, "%s: %s\n", p.T("prefs.language"), p.Language())
			return nil
		},
	}

	theme := &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Set the theme, or toggle it when no value is given",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(preferences.Light), string(preferences.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := r.app.Prefs
			if len(args) == 0 {
				if _, err := p.ToggleTheme(); err != nil {
					return err
				}
			} else {
				t, ok := preferences.ParseTheme(args[0])
				if !ok {
					return fmt.Errorf("unknown theme %q", args[0])
				}
				if err := p.SetTheme(t); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.T("prefs.theme"), p.Theme())
			return nil
		},
	}

	language := &cobra.Command{
		Use:   "language <en|ur|roman>",
		Short: "Set the display language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := r.app.Prefs
			l, ok := preferences.ParseLanguage(args[0])
			if !ok {
				return fmt.Errorf("unknown language %q", args[0])
			}
			if err := p.SetLanguage(l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.T("prefs.language"), p.Language())
			return nil
		},
	}

	cmd.AddCommand(theme, language)
	return cmd
}
