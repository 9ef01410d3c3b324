package workflow

// Action is a requested operation on a claim. ALLOCATE never moves the
// claim; it only appears as the audit tag for assignment entries.
type Action string

const (
	ActionForward  Action = "FORWARD"
	ActionReject   Action = "REJECT"
	ActionApprove  Action = "APPROVE"
	ActionClarify  Action = "CLARIFY"
	ActionRespond  Action = "RESPOND"
	ActionAllocate Action = "ALLOCATE"
)

var transitionActions = map[Action]bool{
	ActionForward: true,
	ActionReject:  true,
	ActionApprove: true,
	ActionClarify: true,
	ActionRespond: true,
}

func (a Action) String() string { return string(a) }

// IsTransition reports whether a is a state-machine action (ALLOCATE is not).
func (a Action) IsTransition() bool { return transitionActions[a] }
