package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/service"
)

var (
	mentionStatus  string
	mentionKeyword string
	mentionFilter  string
)

var mentionsCmd = &cobra.Command{
	Use:     "mentions",
	Aliases: []string{"mention"},
	Short:   "List and triage mentions",
}

var mentionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mentions of a project",
	Long: `List mentions of a project.

--filter narrows the fetched page with an expression over "mention"
(id, project_id, source, subreddit, title, body, url, author, score, status,
keyword, created_at) and "now". glob(text, pattern) and
contains_any(text, [words]) are available.

Examples:
  mentiondesk mentions list -p 42 --status unread
  mentiondesk mentions list -p 42 --filter 'mention.score >= 10 && glob(mention.subreddit, "go*")'`,
	Args: cobra.NoArgs,
	RunE: runMentionsList,
}

var mentionsActCmd = &cobra.Command{
	Use:   "act <mention-id> <action>",
	Short: "Apply an action: " + actionNames(),
	Args:  cobra.ExactArgs(2),
	RunE:  runMentionsAct,
}

func init() {
	mentionsCmd.PersistentFlags().StringVarP(&trackingProject, "project", "p", "", "project id")
	_ = mentionsCmd.MarkPersistentFlagRequired("project")

	mentionsListCmd.Flags().IntVar(&listPage, "page", 0, "page number (server default when 0)")
	mentionsListCmd.Flags().IntVar(&listLimit, "limit", 0, "page size, at most 100 (server default when 0)")
	mentionsListCmd.Flags().StringVar(&mentionStatus, "status", "", "unread, read, archived, dismissed or starred")
	mentionsListCmd.Flags().StringVar(&mentionKeyword, "keyword", "", "only mentions matched by this keyword")
	mentionsListCmd.Flags().StringVar(&mentionFilter, "filter", "", "filter expression applied to the fetched page")

	mentionsCmd.AddCommand(mentionsListCmd, mentionsActCmd)
	rootCmd.AddCommand(mentionsCmd)
}

func actionNames() string {
	names := make([]string, len(service.MentionActions))
	for i, a := range service.MentionActions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func printMentions(cmd *cobra.Command, v any, items []service.Mention) error {
	return printOutput(cmd.OutOrStdout(), v, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tSTATUS\tSCORE\tSUBREDDIT\tTITLE\tCREATED")
		for _, m := range items {
			fmt.Fprintf(tw, "%s\t%s\t%d\tr/%s\t%s\t%s\n",
				m.ID, m.Status, m.Score, m.Subreddit, truncate(m.Title, 60), formatTime(m.CreatedAt))
		}
	})
}

func runMentionsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	page, err := a.Mentions.List(cmd.Context(), trackingProject, service.MentionQuery{
		Page:    listPage,
		Limit:   listLimit,
		Status:  mentionStatus,
		Keyword: mentionKeyword,
	})
	if err != nil {
		return err
	}
	if mentionFilter != "" {
		page.Items, err = a.Mentions.Filter(cmd.Context(), page.Items, mentionFilter)
		if err != nil {
			return err
		}
	}
	if err := printMentions(cmd, page, page.Items); err != nil {
		return err
	}
	if p := page.Pagination; p != nil && outputFormat == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d mentions)\n", p.Page, p.TotalPages, p.Total)
	}
	return nil
}

func runMentionsAct(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	action := service.MentionAction(args[1])
	if err := a.Mentions.Act(cmd.Context(), trackingProject, args[0], action); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mention %s: %s.\n", args[0], action)
	return nil
}
