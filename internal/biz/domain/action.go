package domain

import "time"

// Branch identifies which moderation path handled a message
type Branch string

const (
	BranchStory Branch = "story"
	BranchText  Branch = "text"
)

// Outcome is the terminal state of handling one message
type Outcome string

const (
	OutcomeNoAction      Outcome = "no_action"
	OutcomeMediaEnforced Outcome = "media_enforced"
	OutcomeTextEnforced  Outcome = "text_enforced"
)

// Reasons recorded on a Decision
const (
	ReasonOwner                = "owner"
	ReasonWhitelist            = "whitelist"
	ReasonPrivilegedRole       = "privileged_role"
	ReasonRoleLookupFailed     = "role_lookup_failed"
	ReasonNoContent            = "no_content"
	ReasonOtherChat            = "other_chat"
	ReasonVerdictNormal        = "verdict_normal"
	ReasonVerdictDelete        = "verdict_delete"
	ReasonClassificationFailed = "classification_failed"
	ReasonStory                = "story"
)

// ActionKind is a single platform side effect
type ActionKind string

const (
	ActionDelete ActionKind = "delete"
	ActionNotify ActionKind = "notify"
	ActionBan    ActionKind = "ban"
)

// ActionResult is the result of one attempted action
type ActionResult struct {
	Kind ActionKind
	Err  error
}

// OK reports whether the action succeeded
func (r ActionResult) OK() bool {
	return r.Err == nil
}

// Decision describes how one inbound message was handled
type Decision struct {
	Outcome  Outcome
	Branch   Branch
	Reason   string
	Verdict  Verdict
	Attempts int
	Batch    []string
	Actions  []ActionResult
	Err      error // classification error when the engine failed open
}

// Succeeded reports whether the given action was attempted and succeeded
func (d *Decision) Succeeded(kind ActionKind) bool {
	for _, a := range d.Actions {
		if a.Kind == kind {
			return a.OK()
		}
	}
	return false
}

// Enforced reports whether enforcement was started
func (d *Decision) Enforced() bool {
	return d.Outcome == OutcomeMediaEnforced || d.Outcome == OutcomeTextEnforced
}

// ModerationRecord is an audit ledger entry
type ModerationRecord struct {
	ID        int64
	ChatID    int64
	MessageID int
	UserID    int64
	UserName  string
	Branch    Branch
	Outcome   Outcome
	Reason    string
	Verdict   Verdict
	Attempts  int
	Content   string
	Deleted   bool
	Notified  bool
	Banned    bool
	Error     string
	CreatedAt time.Time
}
