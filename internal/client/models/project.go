package models

import (
	"regexp"
	"strings"
)

// DefaultProjectID names the sentinel project that always exists and can
// never be deleted, archived, or renamed away.
const DefaultProjectID = "default"

// Project is a named conversation thread. The ID is derived from the name
// once at creation and is immutable afterwards; only Name may change.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// SlugID derives a project id from a display name: lowercase, with every run
// of non-alphanumeric characters collapsed to a single hyphen. No trimming is
// applied, so "My Project!" yields "my-project-".
func SlugID(name string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(name), "-")
}

// DefaultProjects returns the initial project set for a brand-new profile.
func DefaultProjects() []Project {
	return []Project{{ID: DefaultProjectID, Name: "Default"}}
}
