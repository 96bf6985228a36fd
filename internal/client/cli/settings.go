package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mazgpt/mazgpt-go/internal/common"
)

// Prefs shows or updates preferences. With no arguments the current values
// are printed; with "<key> <value>" the named preference is changed.
func (a *App) Prefs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p := a.chat.Preferences()
		printlnFn("theme:   ", p.Theme)
		printlnFn("language:", p.Language)
		printlnFn("tone:    ", p.Tone)
		printlnFn("fontSize:", p.FontSize)
		return nil
	}

	if len(args) != 2 {
		return fmt.Errorf("%w: usage: prefs [<key> <value>]", common.ErrValidation)
	}

	p := a.chat.Preferences()
	key, value := args[0], args[1]
	switch key {
	case "theme":
		p.Theme = value
	case "language":
		p.Language = value
	case "tone":
		p.Tone = value
	case "fontSize":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: fontSize must be a number", common.ErrValidation)
		}
		p.FontSize = size
	default:
		return fmt.Errorf("%w: unknown preference %q", common.ErrValidation, key)
	}

	a.chat.SetPreferences(ctx, p)
	printlnFn("Updated", key)
	return nil
}
