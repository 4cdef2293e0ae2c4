package models

// IntentDefinition is one entry of the intent catalog. CanDuplicateContext
// decides the uniqueness policy: false means the intent name may appear on at
// most one node in the whole bot, true means it may repeat bot-wide but not
// twice inside the same conversational context.
type IntentDefinition struct {
	Name                string `bson:"name" json:"name"`
	CanDuplicateContext bool   `bson:"can_duplicate_context" json:"can_duplicate_context"`
	Base                `bson:",inline"`
}

func NewIntentDefinition(name string, canDuplicateContext bool) *IntentDefinition {
	return &IntentDefinition{
		Name:                name,
		CanDuplicateContext: canDuplicateContext,
		Base:                NewBase(),
	}
}
