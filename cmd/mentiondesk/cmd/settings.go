package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/service"
)

var (
	settingsNotifyEmail bool
	settingsDigest      string
	settingsMinScore    int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change project settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show project settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change project settings",
	Long: `Change project settings. Only the flags given are changed.

Examples:
  mentiondesk settings set -p 42 --digest weekly --min-score 5`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.PersistentFlags().StringVarP(&trackingProject, "project", "p", "", "project id")
	_ = settingsCmd.MarkPersistentFlagRequired("project")

	settingsSetCmd.Flags().BoolVar(&settingsNotifyEmail, "notify-email", false, "email on new mentions")
	settingsSetCmd.Flags().StringVar(&settingsDigest, "digest", "", "digest frequency: off, daily or weekly")
	settingsSetCmd.Flags().IntVar(&settingsMinScore, "min-score", 0, "ignore mentions scoring below this")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func printSettings(cmd *cobra.Command, s *service.ProjectSettings) error {
	return printOutput(cmd.OutOrStdout(), s, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Project:\t%s\n", s.ProjectID)
		fmt.Fprintf(tw, "Email notifications:\t%t\n", s.NotifyEmail)
		fmt.Fprintf(tw, "Digest:\t%s\n", s.DigestFrequency)
		fmt.Fprintf(tw, "Minimum score:\t%d\n", s.MinScore)
	})
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	s, err := a.Settings.Get(cmd.Context(), trackingProject)
	if err != nil {
		return err
	}
	return printSettings(cmd, s)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	current, err := a.Settings.Get(cmd.Context(), trackingProject)
	if err != nil {
		return err
	}
	next := *current
	flags := cmd.Flags()
	if flags.Changed("notify-email") {
		next.NotifyEmail = settingsNotifyEmail
	}
	if flags.Changed("digest") {
		next.DigestFrequency = settingsDigest
	}
	if flags.Changed("min-score") {
		next.MinScore = settingsMinScore
	}

	updated, err := a.Settings.Update(cmd.Context(), trackingProject, next)
	if err != nil {
		return err
	}
	return printSettings(cmd, updated)
}
