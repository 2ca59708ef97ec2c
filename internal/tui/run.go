package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives a full-screen review session until the queue is handled or the
// user quits. Canceling the context tears the program down cleanly.
func Run(ctx context.Context, reviewer Reviewer) error {
	if reviewer == nil {
		return fmt.Errorf("reviewer is required")
	}

	p := tea.NewProgram(
		newModel(reviewer),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to run review UI: %w", err)
	}

	if m, ok := final.(Model); ok {
		approved, rejected := m.Stats()
		if approved+rejected > 0 {
			slog.Info("review session complete",
				"approved", approved,
				"rejected", rejected)
		}
	}

	return nil
}
