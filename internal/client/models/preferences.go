package models

// Preferences holds per-user personalization settings.
type Preferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Tone          string `json:"tone"`
	FontSize      int    `json:"fontSize"`
	Notifications bool   `json:"notifications,omitempty"`
	MapProvider   string `json:"mapProvider,omitempty"`
}

// DefaultPreferences returns the preferences applied when a user has none.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    "light",
		Language: "en",
		Tone:     "friendly",
		FontSize: 16,
	}
}
