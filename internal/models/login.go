package models

import (
	"strings"
	"time"
)

// AllRoutes is the route name that grants access to the admin area.
const AllRoutes = "all"

// Login is an admin credential. RouteName scopes it; only AllRoutes logins
// may sign in to the editor.
type Login struct {
	ID           string    `json:"_id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password"`
	RouteName    string    `json:"routeName" bson:"routeName"`
	Onboard      time.Time `json:"onboard" bson:"onboard"`
	Access       string    `json:"access" bson:"access"`
}

// Admin reports whether the login may manage every wheel.
func (l *Login) Admin() bool {
	return strings.EqualFold(strings.TrimSpace(l.RouteName), AllRoutes)
}

// Enabled reports whether the login has not been switched off.
func (l *Login) Enabled() bool {
	return l.Access != "disable"
}
