package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/roster/internal/mapping"
)

// ErrInputTerminated is returned when input ends before an answer is given.
var ErrInputTerminated = errors.New("input terminated")

// MappingEditor is the part of an import session a prompter edits.
type MappingEditor interface {
	Columns() []string
	Mappings() []mapping.Mapping
	Unmapped() []string
	Assign(column string, field mapping.FieldID) error
	AssignCustom(column, name string) error
}

// Prompter asks the user to review mappings and confirm steps of an import.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ReviewMappings lets the user edit the mappings until they accept (true) or
// quit (false).
func (p *Prompter) ReviewMappings(ctx context.Context, editor MappingEditor) (bool, error) {
	for {
		p.println(RenderMappings(editor.Mappings(), editor.Unmapped()))
		p.println(FormatPrompt("Options:"))
		p.println("  [A] Accept mappings")
		p.println("  [M] Map a column to a field")
		p.println("  [C] Make a column a custom field")
		p.println("  [U] Unmap a column")
		p.println("  [Q] Quit without importing")
		p.println("")

		choice, err := p.promptChoice(ctx, "Choice [A/M/C/U/Q]", []string{"a", "m", "c", "u", "q"})
		if err != nil {
			return false, err
		}

		switch choice {
		case "a":
			if err := mapping.Validate(editor.Mappings()); err != nil {
				p.println(FormatError(validationMessage(err)))
				continue
			}
			return true, nil
		case "q":
			return false, nil
		case "m":
			err = p.mapColumn(ctx, editor)
		case "c":
			err = p.customColumn(ctx, editor)
		case "u":
			err = p.unmapColumn(ctx, editor)
		}
		if err != nil {
			if errors.Is(err, ErrInputCancelled) || errors.Is(err, ErrInputTerminated) || ctx.Err() != nil {
				return false, err
			}
			p.println(FormatError(err.Error()))
		}
	}
}

func validationMessage(err error) string {
	var verr *mapping.ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	return err.Error()
}

func (p *Prompter) mapColumn(ctx context.Context, editor MappingEditor) error {
	column, err := p.promptColumn(ctx, editor.Columns())
	if err != nil {
		return err
	}
	field, err := p.promptField(ctx)
	if err != nil {
		return err
	}
	if err := editor.Assign(column, field); err != nil {
		return err
	}
	p.println(FormatSuccess(fmt.Sprintf("%s → %s", column, field.Label())))
	return nil
}

func (p *Prompter) customColumn(ctx context.Context, editor MappingEditor) error {
	column, err := p.promptColumn(ctx, editor.Columns())
	if err != nil {
		return err
	}
	name, err := p.promptLine(ctx, fmt.Sprintf("Custom field name (empty for %q)", column))
	if err != nil {
		return err
	}
	if err := editor.AssignCustom(column, name); err != nil {
		return err
	}
	if name == "" {
		name = column
	}
	p.println(FormatSuccess(fmt.Sprintf("%s → %s", column, mapping.CustomField(name).Label())))
	return nil
}

func (p *Prompter) unmapColumn(ctx context.Context, editor MappingEditor) error {
	column, err := p.promptColumn(ctx, editor.Columns())
	if err != nil {
		return err
	}
	if err := editor.Assign(column, ""); err != nil {
		return err
	}
	p.println(FormatWarning(fmt.Sprintf("%s is no longer mapped", column)))
	return nil
}

// promptColumn accepts a column number or its exact header.
func (p *Prompter) promptColumn(ctx context.Context, columns []string) (string, error) {
	p.println(FormatInfo("Columns:"))
	for i, c := range columns {
		p.println(fmt.Sprintf("  %2d. %s", i+1, c))
	}

	for {
		input, err := p.promptLine(ctx, "Column")
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(columns) {
			return columns[n-1], nil
		}
		for _, c := range columns {
			if c == input {
				return c, nil
			}
		}
		p.println(FormatError("Unknown column. Enter its number or exact name."))
	}
}

// promptField accepts a field number, id or label.
func (p *Prompter) promptField(ctx context.Context) (mapping.FieldID, error) {
	fields := mapping.Fields()
	p.println(FormatInfo("Fields:"))
	for i, f := range fields {
		p.println(fmt.Sprintf("  %2d. %s %s", i+1, f.Label(), SubtleStyle.Render("("+string(f)+")")))
	}

	for {
		input, err := p.promptLine(ctx, "Field")
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(fields) {
			return fields[n-1], nil
		}
		if f, ok := mapping.ParseField(input); ok {
			return f, nil
		}
		p.println(FormatError("Unknown field. Enter its number, id or label."))
	}
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.promptLine(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := p.promptLine(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		p.println(FormatError("Invalid choice. Please try again."))
	}
}

func (p *Prompter) promptLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrInputTerminated
	}
	return line, err
}

func (p *Prompter) println(s string) {
	if _, err := fmt.Fprintln(p.writer, s); err != nil {
		slog.Warn("Failed to write to terminal", "error", err)
	}
}
