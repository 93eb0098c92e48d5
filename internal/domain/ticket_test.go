package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketApplyDefaults(t *testing.T) {
	ticket := Ticket{Title: "Printer jam", Category: TicketCategoryBug}
	ticket.ApplyDefaults()

	assert.Equal(t, TicketStatusOpen, ticket.Status)
	assert.Equal(t, UrgencyLow, ticket.UrgencyLevel)

	explicit := Ticket{Status: TicketStatusResolved, UrgencyLevel: UrgencyHigh}
	explicit.ApplyDefaults()
	assert.Equal(t, TicketStatusResolved, explicit.Status)
	assert.Equal(t, UrgencyHigh, explicit.UrgencyLevel)
}

func TestEnumValidity(t *testing.T) {
	for _, s := range TicketStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TicketStatus("Pending").Valid())
	assert.False(t, TicketStatus("open").Valid())

	for _, c := range TicketCategories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, TicketCategory("Billing").Valid())

	assert.False(t, UrgencyLevel(0).Valid())
	assert.False(t, UrgencyLevel(6).Valid())
	for _, u := range UrgencyLevels {
		assert.True(t, u.Valid())
	}
}

func TestUrgencyPresentation(t *testing.T) {
	cases := []struct {
		level UrgencyLevel
		label string
		class string
		color string
	}{
		{UrgencyLow, "Low", "urgency-low", "#22c55e"},
		{UrgencyMedium, "Medium", "urgency-medium", "#eab308"},
		{UrgencyHigh, "High", "urgency-high", "#f97316"},
		{UrgencyUrgent, "Urgent", "urgency-critical", "#ef4444"},
		{UrgencyCritical, "Critical", "urgency-critical", "#dc2626"},
		{UrgencyLevel(9), "Unknown", "", "#64748b"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, tc.level.Label())
		assert.Equal(t, tc.class, tc.level.CSSClass())
		assert.Equal(t, tc.color, tc.level.Color())
	}
}

func TestUserHasRole(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.HasRole(RoleAdmin))

	u := &User{Roles: []Role{RoleUser}}
	assert.True(t, u.HasRole(RoleUser))
	assert.False(t, u.HasRole(RoleAdmin))
}
