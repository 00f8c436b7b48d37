// internal/domain/models/membership.go
package models

// Membership associates a user (by email) with a group under a nickname.
// Nicknames are unique within a group. Groups are referenced by name.
type Membership struct {
	UserID               int64  `json:"user_id"`
	Email                string `json:"email"`
	Nickname             string `json:"nickname"`
	GroupName            string `json:"group"`
	IsAdmin              bool   `json:"is_admin"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}
