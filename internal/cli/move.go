package cli

import (
	"fmt"

	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task to another board column",
	Long: `Move a task to another column. The same rules apply as dragging a card
on the board: visitors cannot move tasks, and members may move tasks
they reported or are assigned to.

Examples:
  ironboard task move 12 inprogress
  ironboard task move 12 done`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	target, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}

	_, b, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	it, ok := b.Item(id)
	if !ok {
		return fmt.Errorf("task #%d is not on this board", id)
	}

	outcome, err := b.MoveItem(cmd.Context(), id, target)
	if err != nil {
		return err
	}

	switch outcome {
	case board.Moved:
		fmt.Fprintf(out, "✓ Moved \"%s\": %s → %s\n", it.Title, it.Status.Label(), target.Label())
	case board.Denied:
		return fmt.Errorf("you cannot move task #%d", id)
	case board.NoColumn:
		if n, ok := app.Notices.Latest(); ok {
			return fmt.Errorf("%s", n.Message)
		}
		return fmt.Errorf("no %s column on this board", target.Label())
	default:
		fmt.Fprintf(out, "\"%s\" is already in %s\n", it.Title, target.Label())
	}
	return nil
}
