package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/config"
	"github.com/mazgpt/mazgpt-go/internal/client/repositories/profile"
	"github.com/mazgpt/mazgpt-go/internal/client/services"
	"github.com/mazgpt/mazgpt-go/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the services behind the REPL: the HTTP gateway, the session
// manager (bound back into the gateway as its 401 handler), the conversation
// controller, and the 2FA controller.
type App struct {
	config  *config.Config
	log     logging.Logger
	client  *api.HTTPClient
	session *services.SessionService
	chat    *services.ChatService
	twofa   *services.TwoFactorService
	db      *sql.DB
	reader  *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := profile.OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	client, err := api.NewHTTPClient(c.ServerURL, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := profile.NewSQLiteRepository(db)
	chat := services.NewChatService(client, repo, log)
	session := services.NewSessionService(client, chat, log, c.RefreshInterval)
	client.BindSessionHandler(session)
	twofa := services.NewTwoFactorService(client, session, log)

	return &App{
		config:  c,
		log:     log,
		client:  client,
		session: session,
		chat:    chat,
		twofa:   twofa,
		db:      db,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.client.Close()
		_ = a.db.Close()
	}()

	a.session.Initialize(ctx)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session.CurrentUser() != nil
}
