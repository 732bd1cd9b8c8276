package agent

import "strings"

// CompletionToken is the exact literal the model must emit, alone, to signal
// that the quiz chain is finished.
const CompletionToken = "END"

// Decision is the router's verdict on the latest turn.
type Decision string

const (
	DecisionTools     Decision = "tools"
	DecisionContinue  Decision = "continue"
	DecisionTerminate Decision = "terminate"
)

// Route inspects only the last turn: pending tool calls dispatch to tools,
// the bare completion token terminates, anything else needs another
// reasoning step. Keeping the decision local to one turn keeps routing O(1)
// and stateless.
func Route(last Turn) Decision {
	if len(last.ToolCalls) > 0 {
		return DecisionTools
	}
	if strings.TrimSpace(last.Content.PrimaryText()) == CompletionToken {
		return DecisionTerminate
	}
	return DecisionContinue
}
