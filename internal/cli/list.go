package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks", "t"},
	Short:   "Manage tasks in the selected project",
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks by board column",
	Long: `List the project's tasks grouped by board column.

Examples:
  ironboard task list
  ironboard task list --status inprogress
  ironboard task list --project 3 --mine`,
	RunE: runTaskList,
}

var taskSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Find tasks whose title contains text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskSearch,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task with its comments and subtasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var (
	taskProject int64
	listStatus  string
	listMine    bool
)

func init() {
	taskCmd.PersistentFlags().Int64VarP(&taskProject, "project", "P", 0, "Project id (default: selected project)")
	taskListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show one column (todo, inprogress, inreview, done)")
	taskListCmd.Flags().BoolVarP(&listMine, "mine", "m", false, "Only show tasks assigned to you")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskSearchCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskCommentCmd)
}

// loadBoard opens the project and fetches its board
func loadBoard(cmd *cobra.Command) (*model.Project, *board.Board, error) {
	ctx := cmd.Context()
	p, err := app.openProject(ctx, taskProject)
	if err != nil {
		return nil, nil, err
	}
	b := app.newBoard(p.ID)
	if err := b.Load(ctx); err != nil {
		b.Close()
		return nil, nil, err
	}
	return p, b, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var only model.Status
	if listStatus != "" {
		st, err := model.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		only = st
	}

	p, b, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	var userID int64
	if u := app.Session.User(); u != nil {
		userID = u.ID
	}

	fmt.Fprintf(out, "\n📁 %s\n", p.Name)
	total := 0
	for _, lane := range b.Display() {
		if only != "" && lane.Status != only {
			continue
		}
		items := lane.Items
		if listMine {
			items = filterItems(items, func(it model.Item) bool { return it.IsAssignee(userID) })
		}
		total += len(items)
		printLane(out, lane.Status, items)
	}
	fmt.Fprintln(out)

	if total == 0 && only == "" && !listMine {
		fmt.Fprintln(out, "No tasks yet. Add one with: ironboard task add \"Your task\"")
	}
	return nil
}

func runTaskSearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	query := strings.ToLower(strings.TrimSpace(strings.Join(args, " ")))

	_, b, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	found := 0
	for _, lane := range b.Display() {
		items := filterItems(lane.Items, func(it model.Item) bool {
			return strings.Contains(strings.ToLower(it.Title), query)
		})
		if len(items) == 0 {
			continue
		}
		found += len(items)
		printLane(out, lane.Status, items)
	}

	if found == 0 {
		fmt.Fprintf(out, "No tasks match %q\n", query)
		return nil
	}
	fmt.Fprintf(out, "\n%d matching tasks\n", found)
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	it, err := app.Client.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("task not found: %d: %w", id, err)
	}
	printItemDetail(cmd.OutOrStdout(), it)
	return nil
}

func filterItems(items []model.Item, keep func(model.Item) bool) []model.Item {
	var out []model.Item
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
