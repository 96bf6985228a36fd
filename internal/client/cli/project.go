package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mazgpt/mazgpt-go/internal/common"
)

// Projects lists the active projects, marking the selected one, followed by
// the archived ids.
func (a *App) Projects(ctx context.Context) error {
	selected := a.chat.Selected()

	for _, p := range a.chat.Projects() {
		marker := "  "
		if p.ID == selected {
			marker = "* "
		}
		printlnFn(fmt.Sprintf("%s%s (%s)", marker, p.Name, p.ID))
	}
	if archived := a.chat.Archived(); len(archived) > 0 {
		printlnFn("archived:", strings.Join(archived, ", "))
	}
	return nil
}

func (a *App) CreateProject(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: usage: create <name>", common.ErrValidation)
	}

	p, err := a.chat.CreateProject(ctx, name)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Created and selected project %q (%s)", p.Name, p.ID))
	return nil
}

func (a *App) RenameProject(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: rename <id> <new name>", common.ErrValidation)
	}

	if err := a.chat.RenameProject(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	printlnFn("Renamed.")
	return nil
}

func (a *App) DeleteProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: delete <id>", common.ErrValidation)
	}

	if err := a.chat.DeleteProject(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Deleted.")
	return nil
}

func (a *App) ArchiveProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: archive <id>", common.ErrValidation)
	}

	if err := a.chat.ArchiveProject(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Archived.")
	return nil
}

func (a *App) SelectProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: select <id>", common.ErrValidation)
	}

	if err := a.chat.SelectProject(args[0]); err != nil {
		return err
	}
	printlnFn("Selected", args[0])
	return nil
}
