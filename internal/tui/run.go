package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// EditMappings opens the editor over the session's mappings and blocks until
// the user accepts (true) or quits (false).
func EditMappings(ctx context.Context, editor MappingEditor, opts ...Option) (bool, error) {
	if editor == nil {
		return false, errors.New("mapping editor is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		progOpts = append(progOpts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(cfg.Output))
	}

	final, err := tea.NewProgram(NewModel(editor, cfg), progOpts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("mapping editor failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return false, fmt.Errorf("mapping editor returned unexpected model %T", final)
	}
	return m.Accepted(), nil
}
