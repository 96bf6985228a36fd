package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
)

// Send posts a chat message to the active project. The text may be given as
// arguments or entered at a prompt.
func (a *App) Send(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = getSimpleText(a.reader, "Enter message", os.Stdout)
		if err != nil {
			return err
		}
	}

	reply, err := a.chat.SendMessage(ctx, text)
	if err != nil {
		return err
	}

	printlnFn("ai:", reply)
	return nil
}

// Messages prints the active project's history.
func (a *App) Messages(ctx context.Context) error {
	msgs := a.chat.Messages()
	if len(msgs) == 0 {
		printlnFn("No messages yet.")
		return nil
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return nil
}

// History re-fetches the active project's history from the server.
func (a *App) History(ctx context.Context) error {
	if err := a.chat.LoadHistory(ctx); err != nil {
		return err
	}
	return a.Messages(ctx)
}

// Search prints the messages in the active project matching the query.
func (a *App) Search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: usage: search <text>", common.ErrValidation)
	}

	hits := a.chat.SearchMessages(query)
	if len(hits) == 0 {
		printlnFn("No matches.")
		return nil
	}
	for _, m := range hits {
		printMessage(m)
	}
	return nil
}

// Export prints the active project's history as JSON.
func (a *App) Export(ctx context.Context) error {
	data, err := a.chat.ExportMessages()
	if err != nil {
		return err
	}
	printlnFn(string(data))
	return nil
}

// Import replaces the active project's history with a pasted JSON array.
func (a *App) Import(ctx context.Context) error {
	payload, err := GetMultiline(a.reader, "Paste a JSON array of messages", os.Stdout)
	if err != nil {
		return err
	}
	if payload == "" {
		printlnFn("Nothing to import.")
		return nil
	}

	if err := a.chat.ImportMessages(ctx, []byte(payload)); err != nil {
		return err
	}
	printlnFn("Imported.")
	return nil
}

// NewChat clears the active project's history.
func (a *App) NewChat(ctx context.Context) error {
	a.chat.NewChat(ctx)
	printlnFn("Started a new chat.")
	return nil
}

func printMessage(m models.Message) {
	printlnFn(fmt.Sprintf("%s: %s", m.Sender, m.Text))
}
