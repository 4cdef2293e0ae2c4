package constants

// MongoDB collection names
const (
	CollectionInteractions          = "interactions"
	CollectionPublishedInteractions = "published_interactions"
	CollectionIntents               = "intents"
	CollectionWorkspaces            = "workspaces"
	CollectionPublications          = "publications"
	CollectionUsers                 = "users"
)

// Suggestion LLM providers
const (
	OpenAI = "openai"
	Gemini = "gemini"
)

// Redis channel prefix for publication events consumed by the runtime engine
const PublicationChannelPrefix = "botstudio:publications:"
