package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/service"
)

// Keywords and subreddits share the shape "<noun> list|add|remove --project".

var trackingProject string

var keywordsCmd = &cobra.Command{
	Use:     "keywords",
	Aliases: []string{"keyword"},
	Short:   "Manage the keywords a project tracks",
}

var subredditsCmd = &cobra.Command{
	Use:     "subreddits",
	Aliases: []string{"subreddit"},
	Short:   "Manage the subreddits a project watches",
}

func init() {
	keywordsCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List keywords", Args: cobra.NoArgs, RunE: runKeywordsList},
		&cobra.Command{Use: "add <term>", Short: "Track a keyword", Args: cobra.ExactArgs(1), RunE: runKeywordsAdd},
		&cobra.Command{Use: "remove <keyword-id>", Short: "Stop tracking a keyword", Args: cobra.ExactArgs(1), RunE: runKeywordsRemove},
	)
	subredditsCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List subreddits", Args: cobra.NoArgs, RunE: runSubredditsList},
		&cobra.Command{Use: "add <name>", Short: "Watch a subreddit (r/ prefix optional)", Args: cobra.ExactArgs(1), RunE: runSubredditsAdd},
		&cobra.Command{Use: "remove <subreddit-id>", Short: "Stop watching a subreddit", Args: cobra.ExactArgs(1), RunE: runSubredditsRemove},
	)
	for _, c := range []*cobra.Command{keywordsCmd, subredditsCmd} {
		c.PersistentFlags().StringVarP(&trackingProject, "project", "p", "", "project id")
		_ = c.MarkPersistentFlagRequired("project")
		rootCmd.AddCommand(c)
	}
}

func printKeywords(cmd *cobra.Command, v any, items []service.Keyword) error {
	return printOutput(cmd.OutOrStdout(), v, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tTERM")
		for _, k := range items {
			fmt.Fprintf(tw, "%s\t%s\n", k.ID, k.Term)
		}
	})
}

func printSubreddits(cmd *cobra.Command, v any, items []service.Subreddit) error {
	return printOutput(cmd.OutOrStdout(), v, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tSUBREDDIT")
		for _, s := range items {
			fmt.Fprintf(tw, "%s\tr/%s\n", s.ID, s.Name)
		}
	})
}

func runKeywordsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	items, err := a.Keywords.List(cmd.Context(), trackingProject)
	if err != nil {
		return err
	}
	return printKeywords(cmd, items, items)
}

func runKeywordsAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	k, err := a.Keywords.Add(cmd.Context(), trackingProject, args[0])
	if err != nil {
		return err
	}
	return printKeywords(cmd, k, []service.Keyword{*k})
}

func runKeywordsRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	if err := a.Keywords.Remove(cmd.Context(), trackingProject, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed keyword %s.\n", args[0])
	return nil
}

func runSubredditsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	items, err := a.Subreddits.List(cmd.Context(), trackingProject)
	if err != nil {
		return err
	}
	return printSubreddits(cmd, items, items)
}

func runSubredditsAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	s, err := a.Subreddits.Add(cmd.Context(), trackingProject, args[0])
	if err != nil {
		return err
	}
	return printSubreddits(cmd, s, []service.Subreddit{*s})
}

func runSubredditsRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	if err := a.Subreddits.Remove(cmd.Context(), trackingProject, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed subreddit %s.\n", args[0])
	return nil
}
