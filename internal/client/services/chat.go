package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/client/repositories/profile"
	"github.com/mazgpt/mazgpt-go/internal/common"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

// ChatService owns the conversation state: the project set, each project's
// message history, archived project ids, and preferences. Every committed
// mutation is written through to the profile store under the current user's
// email; persistence failures are logged and never roll back the in-memory
// state.
type ChatService struct {
	client api.Client
	repo   profile.Repository
	log    logging.Logger

	mu       sync.Mutex
	email    string
	projects []models.Project
	messages map[string][]models.Message
	prefs    models.Preferences
	archived []string
	selected string
	sending  map[string]bool
}

func NewChatService(client api.Client, repo profile.Repository, log logging.Logger) *ChatService {
	return &ChatService{
		client:   client,
		repo:     repo,
		log:      log,
		messages: map[string][]models.Message{},
		sending:  map[string]bool{},
		selected: models.DefaultProjectID,
		prefs:    models.DefaultPreferences(),
	}
}

// Load hydrates the in-memory state from the profile stored for email,
// falling back to the seeded default profile when the store has nothing
// (including a corrupt blob, which the repository reports as no data).
func (c *ChatService) Load(ctx context.Context, email string) error {
	p, err := c.repo.Load(ctx, email)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		p = models.DefaultProfile()
	}
	if len(p.Projects) == 0 {
		p.Projects = models.DefaultProjects()
	}
	if p.ProjectMessages == nil {
		p.ProjectMessages = map[string][]models.Message{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = email
	c.projects = p.Projects
	c.messages = p.ProjectMessages
	c.prefs = p.Preferences
	c.archived = p.Archived
	c.selected = models.DefaultProjectID
	c.reconcileLocked()
	return nil
}

// Flush persists the current in-memory state under email. Used by the
// session manager right before identity is cleared on logout.
func (c *ChatService) Flush(ctx context.Context, email string) error {
	c.mu.Lock()
	p := c.snapshotLocked()
	c.mu.Unlock()
	if err := c.repo.Save(ctx, email, p); err != nil {
		return fmt.Errorf("flush profile: %w", err)
	}
	return nil
}

// Reset drops the in-memory state back to the seeded defaults with no owner.
func (c *ChatService) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := models.DefaultProfile()
	c.email = ""
	c.projects = p.Projects
	c.messages = p.ProjectMessages
	c.prefs = p.Preferences
	c.archived = nil
	c.selected = models.DefaultProjectID
}

// SelectProject makes id the active project.
func (c *ChatService) SelectProject(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasProjectLocked(id) {
		return fmt.Errorf("%w: unknown project %q", common.ErrValidation, id)
	}
	c.selected = id
	return nil
}

// SetProjects replaces the project set wholesale and reconciles the message
// map against the new set: new projects get an empty history, histories for
// removed projects are dropped. If the active project disappears, selection
// falls back to the first project, then to "default".
func (c *ChatService) SetProjects(ctx context.Context, projects []models.Project) {
	c.mu.Lock()
	c.projects = projects
	c.reconcileLocked()
	c.persistLocked(ctx)
	c.mu.Unlock()
}

// CreateProject derives the new project's id from its name (slug rule) and
// selects it. A blank name, or a name whose slug collides with an existing
// project, is rejected without mutating anything.
func (c *ChatService) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", common.ErrValidation)
	}
	id := models.SlugID(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasProjectLocked(id) {
		return nil, fmt.Errorf("%w: project %q already exists", common.ErrValidation, id)
	}
	p := models.Project{ID: id, Name: name}
	c.projects = append(c.projects, p)
	c.messages[id] = []models.Message{}
	c.selected = id
	c.persistLocked(ctx)
	return &p, nil
}

// RenameProject changes a project's display name. Ids are immutable, so the
// message history keeps its key.
func (c *ChatService) RenameProject(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: project name is required", common.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == id {
			c.projects[i].Name = name
			c.persistLocked(ctx)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown project %q", common.ErrValidation, id)
}

// DeleteProject removes a project and its history. The default project is
// not deletable. When the deleted project was active, selection falls back
// to "default".
func (c *ChatService) DeleteProject(ctx context.Context, id string) error {
	if id == models.DefaultProjectID {
		return fmt.Errorf("%w: the default project cannot be deleted", common.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasProjectLocked(id) {
		return fmt.Errorf("%w: unknown project %q", common.ErrValidation, id)
	}
	c.projects = slices.DeleteFunc(c.projects, func(p models.Project) bool { return p.ID == id })
	delete(c.messages, id)
	if c.selected == id {
		c.selected = models.DefaultProjectID
	}
	c.persistLocked(ctx)
	return nil
}

// ArchiveProject removes a project from the active set like delete, but
// additionally records its id in the archived list. The default project
// cannot be archived. An archived active project yields selection back to
// "default".
func (c *ChatService) ArchiveProject(ctx context.Context, id string) error {
	if id == models.DefaultProjectID {
		return fmt.Errorf("%w: the default project cannot be archived", common.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasProjectLocked(id) {
		return fmt.Errorf("%w: unknown project %q", common.ErrValidation, id)
	}
	if !slices.Contains(c.archived, id) {
		c.archived = append(c.archived, id)
	}
	c.projects = slices.DeleteFunc(c.projects, func(p models.Project) bool { return p.ID == id })
	delete(c.messages, id)
	if c.selected == id {
		c.selected = models.DefaultProjectID
	}
	c.persistLocked(ctx)
	return nil
}

// SendMessage appends the user's message to the active project, sends it to
// the backend, and appends the reply to the project the message originated
// from, even if the selection moved meanwhile. At most one send per project
// is in flight; the optimistic user message is never rolled back on failure.
func (c *ChatService) SendMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: message text is required", common.ErrValidation)
	}

	c.mu.Lock()
	pid := c.selected
	if c.sending[pid] {
		c.mu.Unlock()
		return "", fmt.Errorf("project %q: a message is already being sent", pid)
	}
	c.sending[pid] = true
	c.messages[pid] = append(c.messages[pid], models.Message{Sender: models.SenderUser, Text: text})
	c.persistLocked(ctx)
	c.mu.Unlock()

	reply, err := c.client.SendChat(ctx, pid, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sending, pid)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	c.messages[pid] = append(c.messages[pid], models.Message{Sender: models.SenderAI, Text: reply})
	c.persistLocked(ctx)
	return reply, nil
}

// ImportMessages replaces the active project's history with the given JSON
// payload, which must be an array of messages. A malformed payload leaves
// the history untouched.
func (c *ChatService) ImportMessages(ctx context.Context, data []byte) error {
	// json.Unmarshal accepts the literal null into a slice, so the shape is
	// checked up front: only an actual array may replace the history.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: expected a JSON array of messages", common.ErrValidation)
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("%w: expected a JSON array of messages: %v", common.ErrValidation, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[c.selected] = msgs
	c.persistLocked(ctx)
	return nil
}

// ExportMessages returns the active project's history as indented JSON.
func (c *ChatService) ExportMessages() ([]byte, error) {
	c.mu.Lock()
	msgs := slices.Clone(c.messages[c.selected])
	c.mu.Unlock()
	if msgs == nil {
		msgs = []models.Message{}
	}
	return json.MarshalIndent(msgs, "", "  ")
}

// SearchMessages returns the active project's messages whose text contains
// the query, case-insensitively. A blank query matches every message.
func (c *ChatService) SearchMessages(query string) []models.Message {
	query = strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Message
	for _, m := range c.messages[c.selected] {
		if strings.Contains(strings.ToLower(m.Text), query) {
			out = append(out, m)
		}
	}
	return out
}

// NewChat clears the active project's history.
func (c *ChatService) NewChat(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[c.selected] = []models.Message{}
	c.persistLocked(ctx)
}

// LoadHistory replaces the active project's history with the server-side
// copy from the export endpoint. Projects absent from the export keep their
// local history.
func (c *ChatService) LoadHistory(ctx context.Context) error {
	chats, err := c.client.ExportData(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range chats {
		if ch.ProjectID == c.selected {
			c.messages[c.selected] = ch.Messages
			c.persistLocked(ctx)
			return nil
		}
	}
	return nil
}

// Preferences returns a copy of the current preferences.
func (c *ChatService) Preferences() models.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// SetPreferences replaces the preferences wholesale.
func (c *ChatService) SetPreferences(ctx context.Context, p models.Preferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = p
	c.persistLocked(ctx)
}

// Projects returns a copy of the project set.
func (c *ChatService) Projects() []models.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.projects)
}

// Archived returns a copy of the archived project ids.
func (c *ChatService) Archived() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.archived)
}

// Selected returns the active project id.
func (c *ChatService) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Messages returns a copy of the active project's history.
func (c *ChatService) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages[c.selected])
}

// reconcileLocked aligns derived state with the project set: every project
// has a history entry, no history outlives its project, and the selection
// points at a live project. The archived-id list is deliberately left alone;
// archived projects are outside the active set by definition.
func (c *ChatService) reconcileLocked() {
	live := map[string]bool{}
	for _, p := range c.projects {
		live[p.ID] = true
		if _, ok := c.messages[p.ID]; !ok {
			c.messages[p.ID] = []models.Message{}
		}
	}
	for id := range c.messages {
		if !live[id] {
			delete(c.messages, id)
		}
	}

	if !live[c.selected] {
		if len(c.projects) > 0 {
			c.selected = c.projects[0].ID
		} else {
			c.selected = models.DefaultProjectID
		}
	}
}

func (c *ChatService) hasProjectLocked(id string) bool {
	for _, p := range c.projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (c *ChatService) snapshotLocked() *models.Profile {
	p := &models.Profile{
		Projects:        slices.Clone(c.projects),
		ProjectMessages: make(map[string][]models.Message, len(c.messages)),
		Preferences:     c.prefs,
		Archived:        slices.Clone(c.archived),
	}
	for id, msgs := range c.messages {
		p.ProjectMessages[id] = slices.Clone(msgs)
	}
	return p
}

// persistLocked writes the current state through to the profile store. With
// no owning email (anonymous state) it is a no-op. Failures are logged; the
// in-memory mutation stands.
func (c *ChatService) persistLocked(ctx context.Context) {
	if c.email == "" {
		return
	}
	if err := c.repo.Save(ctx, c.email, c.snapshotLocked()); err != nil {
		c.log.Error(ctx, "profile persist failed", "email", c.email, "error", err)
	}
}
