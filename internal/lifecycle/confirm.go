package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirmer asks the operator to approve a destructive phase.
type Confirmer interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// TerminalConfirmer prompts on the terminal.
type TerminalConfirmer struct{}

// Confirm shows an interactive yes/no prompt. Aborting the prompt
// (Ctrl+C) counts as a decline.
func (TerminalConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return confirmed, nil
}
