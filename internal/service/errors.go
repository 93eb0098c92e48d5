package service

import "errors"

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketConflict     = errors.New("ticket was modified by another request")
	ErrTicketPersistence  = errors.New("ticket could not be saved")
	ErrAssigneeNotFound   = errors.New("assignee does not exist")
	ErrInvalidTicket      = errors.New("invalid ticket")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserHasTickets     = errors.New("user created tickets and cannot be deleted")
)
