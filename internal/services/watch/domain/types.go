// Package domain holds the field watch state machine types and the ports it drives
package domain

import "time"

// State is where a field watch is in its lifecycle
type State uint8

const (
	// StateIdle is a watch that has not issued its first lookup
	StateIdle State = iota
	// StatePolling is a watch waiting on, or between, mailbox lookups
	StatePolling
	// StateSuggested is a watch showing a code suggestion
	StateSuggested
	// StateAuthRequired is a watch showing a sign-in prompt
	StateAuthRequired
	// StateAbandoned is a watch whose field left the page
	StateAbandoned
	// StateResolved is a watch whose suggestion or prompt was resolved
	StateResolved
)

var stateNames = [...]string{"idle", "polling", "suggested", "auth_required", "abandoned", "resolved"}

// String returns the snake_case state name
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool { return s == StateAbandoned || s == StateResolved }

// Outcome says how a watch ended
type Outcome string

const (
	// OutcomeNone is a watch still running
	OutcomeNone Outcome = ""
	// OutcomeAccepted means the code was written into the field
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDismissed means the user closed the suggestion
	OutcomeDismissed Outcome = "dismissed"
	// OutcomeTimedOut means the suggestion expired unanswered
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeAuthenticated means sign-in succeeded and the field was handed back to the scanner
	OutcomeAuthenticated Outcome = "authenticated"
	// OutcomeAuthDismissed means the user closed the sign-in prompt
	OutcomeAuthDismissed Outcome = "auth_dismissed"
	// OutcomeDetached means the field left the page
	OutcomeDetached Outcome = "detached"
	// OutcomeStopped means the coordinator shut down
	OutcomeStopped Outcome = "stopped"
)

// Snapshot is a read-only view of one watch
type Snapshot struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	Domain    string    `json:"domain"`
	State     State     `json:"state"`
	Attempts  int       `json:"attempts"`
	Code      string    `json:"code,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Transition is emitted on every state change
type Transition struct {
	Field   string
	From    State
	To      State
	Outcome Outcome
	At      time.Time
}
