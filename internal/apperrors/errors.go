package apperrors

import (
	"fmt"
	"strings"
)

// GraphIntegrityError reports a structural fault in the dialog tree: a cycle,
// an unresolvable parent, or an ancestor walk that overran the traversal
// guard. It aborts the affected operation and is reported, never retried.
type GraphIntegrityError struct {
	NodeID string
	Reason string
}

func (e *GraphIntegrityError) Error() string {
	return fmt.Sprintf("graph integrity violation on node %s: %s", e.NodeID, e.Reason)
}

// IntentNotFoundError means an intent name on a node has no definition in the
// intent catalog.
type IntentNotFoundError struct {
	IntentName string
}

func (e *IntentNotFoundError) Error() string {
	return fmt.Sprintf("intent %q not found in catalog", e.IntentName)
}

// DuplicateUniqueIntentError means a bot-wide unique intent already lives on
// another node.
type DuplicateUniqueIntentError struct {
	IntentName      string
	OffendingNodeID string
}

func (e *DuplicateUniqueIntentError) Error() string {
	return fmt.Sprintf("intent %q is unique per bot and already used by node %s", e.IntentName, e.OffendingNodeID)
}

// DuplicateIntentInContextError means a context-unique intent appears twice
// inside the same conversational context.
type DuplicateIntentInContextError struct {
	IntentName       string
	OffendingNodeIDs []string
}

func (e *DuplicateIntentInContextError) Error() string {
	return fmt.Sprintf("intent %q already used in the same context by nodes [%s]",
		e.IntentName, strings.Join(e.OffendingNodeIDs, ", "))
}

// ValidationFailure is one publish-blocking problem on one node. The batch is
// returned whole so the authoring UI can highlight every offender at once.
type ValidationFailure struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	Reason   string `json:"reason"`
}

// PublishValidationError carries the exhaustive failure set of a publish
// attempt. Publication is all-or-nothing at this gate.
type PublishValidationError struct {
	BotID    string
	Failures []ValidationFailure
}

func (e *PublishValidationError) Error() string {
	return fmt.Sprintf("publication of bot %s blocked by %d validation failure(s)", e.BotID, len(e.Failures))
}
