// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. There is no inheritance, so a
// User that carries optional profile details embeds them instead of extending
// a base class.
package model

// User is an account known to the app.
//
// REQUIRED VS OPTIONAL DATA:
// The identity fields (ID, Name, Avatar) and the follow counters are always
// present. Everything a user may or may not have filled in lives in
// ProfileDetails, which is embedded so the JSON stays flat:
//
//	{"id":"user_2","name":"سارة علي","followers":530,"username":"sara_ali",...}
//
// Preferences and privacy settings are pointers because seeded users other
// than the viewer never set them; nil means "not configured".
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`

	ProfileDetails

	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty"`
	PrivacySettings         *PrivacySettings         `json:"privacySettings,omitempty"`
}

// ProfileDetails holds the free-form fields a user edits on their profile.
type ProfileDetails struct {
	Username      string `json:"username,omitempty"`
	Bio           string `json:"bio,omitempty"`
	Country       string `json:"country,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Job           string `json:"job,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type NotificationPreferences struct {
	Likes    bool `json:"likes"`
	Comments bool `json:"comments"`
	Follows  bool `json:"follows"`
}

type PrivacySettings struct {
	IsPrivate          bool `json:"isPrivate"`
	ShowActivityStatus bool `json:"showActivityStatus"`
}

// Clone returns a deep copy, so callers can mutate the result without
// touching a stored record.
func (u User) Clone() User {
	if u.NotificationPreferences != nil {
		p := *u.NotificationPreferences
		u.NotificationPreferences = &p
	}
	if u.PrivacySettings != nil {
		p := *u.PrivacySettings
		u.PrivacySettings = &p
	}
	return u
}

// ProfileView is a user as seen from the viewer's side.
type ProfileView struct {
	User        User `json:"user"`
	PostCount   int  `json:"postCount"`
	IsSelf      bool `json:"isSelf"`
	IsFollowing bool `json:"isFollowing"`
	IsBlocked   bool `json:"isBlocked"`
}
