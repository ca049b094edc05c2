package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// ApplicationStatus – immutable value object
// ---------------------------------------------------------------------------

// ApplicationStatus is the lifecycle stage of a loan application.
type ApplicationStatus struct {
	value string
}

const (
	appStatusDraft         = "DRAFT"
	appStatusSubmitted     = "SUBMITTED"
	appStatusUnderAnalysis = "UNDER_ANALYSIS"
	appStatusVisitPlanned  = "VISIT_PLANNED"
	appStatusVisitDone     = "VISIT_DONE"
	appStatusInCommittee   = "IN_COMMITTEE"
	appStatusApproved      = "APPROVED"
	appStatusRejected      = "REJECTED"
	appStatusPostponed     = "POSTPONED"
	appStatusCancelled     = "CANCELLED"
)

var (
	ApplicationStatusDraft         = ApplicationStatus{value: appStatusDraft}
	ApplicationStatusSubmitted     = ApplicationStatus{value: appStatusSubmitted}
	ApplicationStatusUnderAnalysis = ApplicationStatus{value: appStatusUnderAnalysis}
	ApplicationStatusVisitPlanned  = ApplicationStatus{value: appStatusVisitPlanned}
	ApplicationStatusVisitDone     = ApplicationStatus{value: appStatusVisitDone}
	ApplicationStatusInCommittee   = ApplicationStatus{value: appStatusInCommittee}
	ApplicationStatusApproved      = ApplicationStatus{value: appStatusApproved}
	ApplicationStatusRejected      = ApplicationStatus{value: appStatusRejected}
	ApplicationStatusPostponed     = ApplicationStatus{value: appStatusPostponed}
	ApplicationStatusCancelled     = ApplicationStatus{value: appStatusCancelled}
)

var validApplicationStatuses = map[string]ApplicationStatus{
	appStatusDraft:         ApplicationStatusDraft,
	appStatusSubmitted:     ApplicationStatusSubmitted,
	appStatusUnderAnalysis: ApplicationStatusUnderAnalysis,
	appStatusVisitPlanned:  ApplicationStatusVisitPlanned,
	appStatusVisitDone:     ApplicationStatusVisitDone,
	appStatusInCommittee:   ApplicationStatusInCommittee,
	appStatusApproved:      ApplicationStatusApproved,
	appStatusRejected:      ApplicationStatusRejected,
	appStatusPostponed:     ApplicationStatusPostponed,
	appStatusCancelled:     ApplicationStatusCancelled,
}

// AllApplicationStatuses lists every status in nominal lifecycle order.
func AllApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationStatusDraft,
		ApplicationStatusSubmitted,
		ApplicationStatusUnderAnalysis,
		ApplicationStatusVisitPlanned,
		ApplicationStatusVisitDone,
		ApplicationStatusInCommittee,
		ApplicationStatusApproved,
		ApplicationStatusRejected,
		ApplicationStatusPostponed,
		ApplicationStatusCancelled,
	}
}

// NewApplicationStatus creates an ApplicationStatus from a raw string.
func NewApplicationStatus(s string) (ApplicationStatus, error) {
	v, ok := validApplicationStatuses[s]
	if !ok {
		return ApplicationStatus{}, fmt.Errorf("invalid application status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s ApplicationStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s ApplicationStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s ApplicationStatus) Equal(other ApplicationStatus) bool { return s.value == other.value }

// In reports whether s is one of candidates.
func (s ApplicationStatus) In(candidates ...ApplicationStatus) bool {
	for _, c := range candidates {
		if s.value == c.value {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further decision may be recorded.
// Postponed is not terminal: the committee can sit again.
func (s ApplicationStatus) IsTerminal() bool {
	return s.In(ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusCancelled)
}

// IsInProgress reports whether the application is being appraised.
func (s ApplicationStatus) IsInProgress() bool {
	return s.In(
		ApplicationStatusSubmitted,
		ApplicationStatusUnderAnalysis,
		ApplicationStatusVisitPlanned,
		ApplicationStatusVisitDone,
		ApplicationStatusInCommittee,
	)
}
