package model

import "fmt"

// ViewMode is the screen the viewer is on.
type ViewMode string

const (
	ViewHome        ViewMode = "home"
	ViewProfile     ViewMode = "profile"      // the viewer's own profile
	ViewUserProfile ViewMode = "user_profile" // someone else's profile
	ViewSettings    ViewMode = "settings"
	ViewChat        ViewMode = "chat"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewHome, ViewProfile, ViewUserProfile, ViewSettings, ViewChat:
		return m, nil
	case "":
		return ViewHome, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// NeedsSubject reports whether the mode is about a specific other user.
func (m ViewMode) NeedsSubject() bool {
	return m == ViewUserProfile || m == ViewChat
}

// View is the viewer's current screen. SubjectID names the other user for
// user_profile and chat views and is empty otherwise.
type View struct {
	Mode      ViewMode `json:"mode"`
	SubjectID string   `json:"subjectId,omitempty"`
}

// About reports whether the view is focused on userID.
func (v View) About(userID string) bool {
	return v.Mode.NeedsSubject() && v.SubjectID == userID
}
