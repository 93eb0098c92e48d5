package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

func TestTicketFormDefaultsAndValidation(t *testing.T) {
	v := NewValidator()

	form := TicketForm{Title: "  Broken login  ", Category: "Bug"}
	form.Normalize()
	assert.Nil(t, v.Struct(&form))
	assert.Equal(t, "Broken login", form.Title)

	ticket := form.ToTicket(0)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.UrgencyLow, ticket.UrgencyLevel)
	assert.Nil(t, ticket.AssignedToUserID)
}

func TestTicketFormErrors(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name  string
		form  TicketForm
		field string
		msg   string
	}{
		{"missing title", TicketForm{Category: "Bug"}, "title", "Title is required"},
		{"long title", TicketForm{Title: strings.Repeat("x", 201), Category: "Bug"}, "title", "Title cannot exceed 200 characters"},
		{"long description", TicketForm{Title: "t", Description: strings.Repeat("d", 2001), Category: "Bug"}, "description", "Description cannot exceed 2000 characters"},
		{"missing category", TicketForm{Title: "t"}, "category", "Category is required"},
		{"unknown category", TicketForm{Title: "t", Category: "Chore"}, "category", "Category must be one of: Bug, Improvement, Access, Feature"},
		{"urgency zero", TicketForm{Title: "t", Category: "Bug", UrgencyLevel: "0"}, "urgencyLevel", "Urgency must be between 1 and 5"},
		{"urgency six", TicketForm{Title: "t", Category: "Bug", UrgencyLevel: "6"}, "urgencyLevel", "Urgency must be between 1 and 5"},
		{"unknown status", TicketForm{Title: "t", Category: "Bug", Status: "Done"}, "status", "Status must be one of: Open, InProgress, Resolved, Closed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := tc.form
			form.Normalize()
			errs := v.Struct(&form)
			require.True(t, errs.Has(tc.field), "errors: %v", errs)
			assert.Equal(t, tc.msg, errs.Get(tc.field))
		})
	}
}

func TestTicketFormRoundTrip(t *testing.T) {
	assignee := "u2"
	stored := &domain.Ticket{
		ID:               4,
		Title:            "Title",
		Status:           domain.TicketStatusResolved,
		UrgencyLevel:     domain.UrgencyHigh,
		Category:         domain.TicketCategoryFeature,
		CreatedByUserID:  "u1",
		AssignedToUserID: &assignee,
		Version:          3,
	}
	form := TicketFormFrom(stored)
	assert.Equal(t, domain.UrgencyHigh, form.SelectedUrgency())
	require.NotNil(t, form.SelectedAssignee())
	assert.Equal(t, "u2", *form.SelectedAssignee())

	back := form.ToTicket(4)
	assert.Equal(t, stored.Title, back.Title)
	assert.Equal(t, stored.Status, back.Status)
	assert.Equal(t, stored.UrgencyLevel, back.UrgencyLevel)
	assert.Equal(t, int64(3), back.Version)
	assert.Empty(t, back.CreatedByUserID)
}

func TestRegisterFormValidation(t *testing.T) {
	v := NewValidator()

	ok := RegisterForm{FullName: "Dev", Email: "dev@local.com", Password: "Passw0rd", ConfirmPassword: "Passw0rd"}
	assert.Nil(t, v.Struct(&ok))

	weak := RegisterForm{FullName: "Dev", Email: "dev@local.com", Password: "password1", ConfirmPassword: "password1"}
	errs := v.Struct(&weak)
	assert.Equal(t, "Password must contain an uppercase letter", errs.Get("password"))

	mismatch := RegisterForm{FullName: "Dev", Email: "not-an-email", Password: "Passw0rd", ConfirmPassword: "Passw0rd!"}
	errs = v.Struct(&mismatch)
	assert.Equal(t, "Email is not a valid email address", errs.Get("email"))
	assert.Equal(t, "The password and confirmation password do not match", errs.Get("confirmPassword"))

	mismatch.ClearSecrets()
	assert.Empty(t, mismatch.Password)
	assert.Empty(t, mismatch.ConfirmPassword)
}

func TestLoginFormValidation(t *testing.T) {
	v := NewValidator()
	form := LoginForm{Email: "  "}
	form.Normalize()
	errs := v.Struct(&form)
	assert.Equal(t, "Email is required", errs.Get("email"))
	assert.Equal(t, "Password is required", errs.Get("password"))
}
