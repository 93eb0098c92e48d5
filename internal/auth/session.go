package auth

import "github.com/spec-kit/ticketdesk/internal/domain"

// Session is an issued login: the signed cookie value and the server-side
// record it points at.
type Session struct {
	Token string
	domain.Session
}
