package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/tui"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board [project-id]",
	Short: "Open the kanban board",
	Long: `Open the interactive kanban board of a project, the selected one by default.

Keys: h/l column, j/k card, space pick up, enter drop, esc cancel,
a add, d delete, r refresh, ? help, q quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	var explicit int64
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		explicit = id
	}

	p, err := app.openProject(cmd.Context(), explicit)
	if err != nil {
		return err
	}

	logger.Info("Launching TUI", logger.F("project", p.ID))
	m := tui.NewModel(tui.Config{
		Project:      p,
		Context:      app.Project,
		Client:       app.Client,
		Notices:      app.Notices,
		BoardOptions: app.boardOptions(),
	})
	defer m.Close()

	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}
