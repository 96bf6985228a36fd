package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if user := a.session.CurrentUser(); user != nil {
		return fmt.Sprintf("(%s:%s)", user.Email, a.chat.Selected())
	}
	if msg := a.session.LastError(); msg != "" {
		return "(" + msg + ")"
	}
	return "(anonymous)"
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to MazGPT CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
