package domain

import "net/url"

// User is the authenticated account as reported by the backend's
// authenticate endpoint. The backend only exposes the username.
type User struct {
	Username string `json:"username"`
}

// Location identifies a client-side view. From carries the originally
// requested location across a guard redirect so a login page may return
// there after authentication.
type Location struct {
	Path  string
	Query string
	From  *Location
}

// String renders the location as path[?query].
func (l Location) String() string {
	if l.Query == "" {
		return l.Path
	}
	return l.Path + "?" + l.Query
}

// Href renders the location as a URL, carrying From in the "from" query
// parameter.
func (l Location) Href() string {
	if l.From == nil {
		return l.String()
	}
	q, _ := url.ParseQuery(l.Query)
	q.Set("from", l.From.String())
	return l.Path + "?" + q.Encode()
}

// Well-known client locations.
const (
	PathLogin          = "/"
	PathSignUp         = "/signup"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-pass/"
	PathCabinet        = "/mycabinet/"
	PathRecipes        = "/recipes/"
	PathCabinetBrowse  = "/mycabinet/browse"
)
