// Package domain provides core business rules for the leads bounded context.
package domain

import "strings"

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	StatusActive           LeadStatus = "active"
	StatusPending          LeadStatus = "pending"
	StatusInvalid          LeadStatus = "invalid"
	StatusNurturing        LeadStatus = "nurturing"
	StatusAwaitingApproval LeadStatus = "awaiting_approval"
	StatusProposalSent     LeadStatus = "proposal_sent"
	StatusWon              LeadStatus = "won"
	StatusLost             LeadStatus = "lost"
)

var knownStatuses = map[LeadStatus]struct{}{
	StatusActive:           {},
	StatusPending:          {},
	StatusInvalid:          {},
	StatusNurturing:        {},
	StatusAwaitingApproval: {},
	StatusProposalSent:     {},
	StatusWon:              {},
	StatusLost:             {},
}

// terminalStatuses are statuses where no further agent actions should occur.
var terminalStatuses = map[LeadStatus]bool{
	StatusInvalid: true,
	StatusWon:     true,
	StatusLost:    true,
}

// ParseStatus normalises s and reports whether it is a known status.
func ParseStatus(s string) (LeadStatus, bool) {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := knownStatuses[status]
	return status, ok
}

// IsTerminal returns true if the agent must not touch a lead in this status.
func (s LeadStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// AwaitsReply returns true for statuses where an inbound reply can arrive.
func (s LeadStatus) AwaitsReply() bool {
	return s == StatusNurturing || s == StatusProposalSent
}

// ValidateUserTransition checks an explicit user edit. Returns a non-empty
// reason when the edit must be rejected.
func ValidateUserTransition(from, to LeadStatus) string {
	if _, ok := knownStatuses[to]; !ok {
		return "unknown status"
	}
	if to == StatusAwaitingApproval && from != StatusAwaitingApproval {
		return "awaiting_approval is only reached through reply drafting"
	}
	return ""
}
