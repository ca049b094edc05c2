package valueobject

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Decision – outcome carried by a decision record
// ---------------------------------------------------------------------------

// Decision is the outcome a reviewer records at a stage.
type Decision struct {
	value string
}

const (
	decisionPending      = "PENDING"
	decisionAccord       = "ACCORD"
	decisionRefusal      = "REFUSAL"
	decisionPostponement = "POSTPONEMENT"
)

var (
	DecisionPending      = Decision{value: decisionPending}
	DecisionAccord       = Decision{value: decisionAccord}
	DecisionRefusal      = Decision{value: decisionRefusal}
	DecisionPostponement = Decision{value: decisionPostponement}
)

// Branch staff record decisions with the French labels of the paper forms.
var validDecisions = map[string]Decision{
	decisionPending:      DecisionPending,
	decisionAccord:       DecisionAccord,
	decisionRefusal:      DecisionRefusal,
	decisionPostponement: DecisionPostponement,
	"EN_ATTENTE":         DecisionPending,
	"REFUS":              DecisionRefusal,
	"AJOURNEMENT":        DecisionPostponement,
	"AJOURNE":            DecisionPostponement,
}

// NewDecision parses a decision label case-insensitively. An empty label is
// read as pending.
func NewDecision(s string) (Decision, error) {
	key := normaliseLabel(s)
	if key == "" {
		return DecisionPending, nil
	}
	v, ok := validDecisions[key]
	if !ok {
		return Decision{}, NewValidationError("decision", "unknown decision "+strconv.Quote(s))
	}
	return v, nil
}

// String returns the string representation of the decision.
func (d Decision) String() string { return d.value }

// IsZero returns true if the decision has not been initialised.
func (d Decision) IsZero() bool { return d.value == "" }

// Equal returns true when both decisions carry the same value.
func (d Decision) Equal(other Decision) bool { return d.value == other.value }

// ---------------------------------------------------------------------------
// DecisionStage – the workflow step a record belongs to
// ---------------------------------------------------------------------------

// DecisionStage identifies one human review step of the appraisal.
type DecisionStage struct {
	value string
}

const (
	stageAgentRecommendation = "AGENT_RECOMMENDATION"
	stageFieldVisit          = "FIELD_VISIT"
	stageRiskOfficer         = "RISK_OFFICER"
	stageBranchManager       = "BRANCH_MANAGER"
	stageCommittee           = "COMMITTEE"
)

var (
	DecisionStageAgentRecommendation = DecisionStage{value: stageAgentRecommendation}
	DecisionStageFieldVisit          = DecisionStage{value: stageFieldVisit}
	DecisionStageRiskOfficer         = DecisionStage{value: stageRiskOfficer}
	DecisionStageBranchManager       = DecisionStage{value: stageBranchManager}
	DecisionStageCommittee           = DecisionStage{value: stageCommittee}
)

var validDecisionStages = map[string]DecisionStage{
	stageAgentRecommendation: DecisionStageAgentRecommendation,
	stageFieldVisit:          DecisionStageFieldVisit,
	stageRiskOfficer:         DecisionStageRiskOfficer,
	stageBranchManager:       DecisionStageBranchManager,
	stageCommittee:           DecisionStageCommittee,
}

// AllDecisionStages lists the stages in review order.
func AllDecisionStages() []DecisionStage {
	return []DecisionStage{
		DecisionStageAgentRecommendation,
		DecisionStageFieldVisit,
		DecisionStageRiskOfficer,
		DecisionStageBranchManager,
		DecisionStageCommittee,
	}
}

// NewDecisionStage parses a stage name. Both AGENT_RECOMMENDATION and the
// URL form agent-recommendation are accepted. Unknown names are a
// ValidationError.
func NewDecisionStage(s string) (DecisionStage, error) {
	v, ok := validDecisionStages[normaliseLabel(s)]
	if !ok {
		return DecisionStage{}, NewValidationError("stage", "unknown decision stage "+strconv.Quote(s))
	}
	return v, nil
}

// String returns the string representation of the stage.
func (s DecisionStage) String() string { return s.value }

// Slug returns the lowercase, dash-separated form used in URLs.
func (s DecisionStage) Slug() string {
	return strings.ReplaceAll(strings.ToLower(s.value), "_", "-")
}

// IsZero returns true if the stage has not been initialised.
func (s DecisionStage) IsZero() bool { return s.value == "" }

// Equal returns true when both stages carry the same value.
func (s DecisionStage) Equal(other DecisionStage) bool { return s.value == other.value }

func normaliseLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
