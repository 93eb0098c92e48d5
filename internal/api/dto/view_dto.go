package dto

import "github.com/spec-kit/ticketdesk/internal/domain"

// Layout carries what every page shell needs.
type Layout struct {
	Title       string
	CurrentUser *domain.User
	IsAdmin     bool
	CSRFToken   string
}

// TicketListView backs the ticket index.
type TicketListView struct {
	Layout
	Tickets []domain.TicketDetails
}

// TicketDetailView backs the detail and delete-confirmation pages. History
// is only loaded for the detail page.
type TicketDetailView struct {
	Layout
	Ticket  domain.TicketDetails
	History []domain.TicketHistory
}

// TicketFormView backs the create and edit forms.
type TicketFormView struct {
	Layout
	Action     string
	IsEdit     bool
	Form       TicketForm
	Errors     FieldErrors
	Message    string
	Statuses   []domain.Choice
	Categories []domain.Choice
	Urgencies  []domain.Choice
	Assignees  []domain.Choice
}

// ProfileView backs the profile page.
type ProfileView struct {
	Layout
	Profile domain.Profile
}

// LoginView backs the login form.
type LoginView struct {
	Layout
	Form    LoginForm
	Errors  FieldErrors
	Message string
}

// RegisterView backs the registration form.
type RegisterView struct {
	Layout
	Form    RegisterForm
	Errors  FieldErrors
	Message string
}

// UserAdminView backs the admin user list.
type UserAdminView struct {
	Layout
	Users   []domain.User
	Message string
}

// ErrorView backs error pages, access denied included.
type ErrorView struct {
	Layout
	Status  int
	Code    string
	Message string
}
