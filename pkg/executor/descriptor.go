package executor

// Action identifies one operation the model may request.
type Action string

const (
	ActionClick              Action = "click"
	ActionInput              Action = "input"
	ActionSelect             Action = "select"
	ActionGetDropdownOptions Action = "get_dropdown_options"
	ActionNavigate           Action = "navigate"
	ActionWait               Action = "wait"
	ActionScroll             Action = "scroll"
	ActionDone               Action = "done"
)

// knownActions is the accepted vocabulary. Anything else is a parse error.
var knownActions = map[Action]bool{
	ActionClick:              true,
	ActionInput:              true,
	ActionSelect:             true,
	ActionGetDropdownOptions: true,
	ActionNavigate:           true,
	ActionWait:               true,
	ActionScroll:             true,
	ActionDone:               true,
}

// ActionDescriptor is one decoded operation from the model's reply.
type ActionDescriptor struct {
	// Action is the operation verb.
	Action Action

	// Target identifies the element to act on: a numeric highlight index,
	// a structural path, or free text. Empty for page-level actions.
	Target string

	// Content carries action input: text to type, an option label, a URL,
	// a wait duration, or a scroll amount.
	Content string
}

// ActionResult reports the outcome of one executed action.
type ActionResult struct {
	// Success is false for every failure, hard or soft.
	Success bool

	// Message is a human-readable outcome, fed back to the model on the
	// next turn.
	Message string

	// Category classifies the failure when one of the defined categories
	// applies. Guidance failures, such as asking for the options of a
	// non-select element, carry only a Message.
	Category ErrorCategory

	// PageChanged reports that the acting tab navigated or a new tab was
	// promoted. The caller must rebuild its snapshot before the next
	// element-targeted action.
	PageChanged bool

	// NewPageURL is the URL of the acting tab after the change. Only
	// meaningful when PageChanged is true.
	NewPageURL string

	// Done reports that the model declared the task complete.
	Done bool
}

func success(msg string) ActionResult {
	return ActionResult{Success: true, Message: msg}
}

func failure(cat ErrorCategory, msg string) ActionResult {
	return ActionResult{Message: msg, Category: cat}
}
