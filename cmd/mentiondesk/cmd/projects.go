package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/service"
)

var (
	listPage           int
	listLimit          int
	projectName        string
	projectDescription string
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsGet,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE:  runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Rename or describe a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and everything tracked under it",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsListCmd.Flags().IntVar(&listPage, "page", 0, "page number (server default when 0)")
	projectsListCmd.Flags().IntVar(&listLimit, "limit", 0, "page size, at most 100 (server default when 0)")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsUpdateCmd} {
		c.Flags().StringVar(&projectName, "name", "", "project name")
		c.Flags().StringVar(&projectDescription, "description", "", "project description")
		_ = c.MarkFlagRequired("name")
	}

	projectsCmd.AddCommand(projectsListCmd, projectsGetCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

func printProjects(cmd *cobra.Command, v any, projects []service.Project) error {
	return printOutput(cmd.OutOrStdout(), v, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tUPDATED")
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, truncate(p.Description, 40), formatTime(p.UpdatedAt))
		}
	})
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	page, err := a.Projects.List(cmd.Context(), service.ListOptions{Page: listPage, Limit: listLimit})
	if err != nil {
		return err
	}
	if err := printProjects(cmd, page, page.Items); err != nil {
		return err
	}
	if p := page.Pagination; p != nil && outputFormat == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d projects)\n", p.Page, p.TotalPages, p.Total)
	}
	return nil
}

func runProjectsGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	p, err := a.Projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printProjects(cmd, p, []service.Project{*p})
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	p, err := a.Projects.Create(cmd.Context(), service.ProjectInput{Name: projectName, Description: projectDescription})
	if err != nil {
		return err
	}
	return printProjects(cmd, p, []service.Project{*p})
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	p, err := a.Projects.Update(cmd.Context(), args[0], service.ProjectInput{Name: projectName, Description: projectDescription})
	if err != nil {
		return err
	}
	return printProjects(cmd, p, []service.Project{*p})
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	if err := a.Projects.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s.\n", args[0])
	return nil
}
