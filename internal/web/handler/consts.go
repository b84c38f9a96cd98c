package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// SessionCookieName is the login session cookie.
	SessionCookieName = "session"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
