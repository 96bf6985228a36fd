// Package models defines the client-side data model: the authenticated user,
// projects with their message histories, preferences, and two-factor state.
package models

// User is the authenticated identity as reported by the backend.
// Email is the unique identifier; everything else is display data.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Tier    string `json:"tier,omitempty"`
}
