package constants

// Interaction node types
const (
	InteractionTypeWelcome         = "welcome"
	InteractionTypeFallback        = "fallback"
	InteractionTypeContextFallback = "context-fallback"
	InteractionTypeInteraction     = "interaction"
	InteractionTypeContainer       = "container"
)

// ValidInteractionTypes lists every accepted node type
var ValidInteractionTypes = []string{
	InteractionTypeWelcome,
	InteractionTypeFallback,
	InteractionTypeContextFallback,
	InteractionTypeInteraction,
	InteractionTypeContainer,
}

// ContextAncestorTypes are the node types that can act as a conversational
// context for intent uniqueness checks
var ContextAncestorTypes = []string{
	InteractionTypeInteraction,
	InteractionTypeContextFallback,
	InteractionTypeWelcome,
	InteractionTypeFallback,
}

func IsValidInteractionType(t string) bool {
	for _, valid := range ValidInteractionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

func IsContextAncestorType(t string) bool {
	for _, valid := range ContextAncestorTypes {
		if t == valid {
			return true
		}
	}
	return false
}
