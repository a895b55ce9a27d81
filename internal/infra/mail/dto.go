package mail

import "errors"

// ErrNotConfigured signals that the SMTP transport has no usable settings.
// Callers treat it like any other send failure; the service keeps running.
var ErrNotConfigured = errors.New("email transport not configured")

// Config carries the SMTP settings injected at construction. No ambient
// environment lookups happen inside the sender.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type OutboundEmail struct {
	From     string
	To       string
	Subject  string
	Body     string
	HTMLBody string
}
