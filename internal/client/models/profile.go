package models

// Profile is the per-user aggregate persisted by the local profile store:
// the project set, every project's message history, personalization
// preferences, and the ids of archived projects.
type Profile struct {
	Projects        []Project            `json:"projects"`
	ProjectMessages map[string][]Message `json:"projectMessages"`
	Preferences     Preferences          `json:"preferences"`
	Archived        []string             `json:"archivedProjects,omitempty"`
}

// DefaultProfile returns the profile seeded for a brand-new user: the default
// project with a short welcome exchange and default preferences.
func DefaultProfile() *Profile {
	return &Profile{
		Projects: DefaultProjects(),
		ProjectMessages: map[string][]Message{
			DefaultProjectID: {
				{Sender: SenderAI, Text: "Hello! I'm MazGPT 👋"},
				{Sender: SenderUser, Text: "Hi! You look cute."},
				{Sender: SenderAI, Text: "Thank you! Tap my face to chat with me."},
			},
		},
		Preferences: DefaultPreferences(),
	}
}
