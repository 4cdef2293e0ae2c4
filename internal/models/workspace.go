package models

// Workspace scopes bots to a tenant and carries the NLU provider identity
// used for that tenant's agents.
type Workspace struct {
	Name string       `bson:"name" json:"name"`
	NLU  WorkspaceNLU `bson:"nlu" json:"nlu"`
	Base `bson:",inline"`
}

type WorkspaceNLU struct {
	// Disabled stops every provider write for the workspace; local edits
	// keep working, linkage is simply not maintained.
	Disabled        bool   `bson:"disabled" json:"disabled"`
	ProjectID       string `bson:"project_id,omitempty" json:"project_id,omitempty"`
	CredentialsJSON string `bson:"credentials_json,omitempty" json:"-"` // Hide in JSON
	DefaultLanguage string `bson:"default_language,omitempty" json:"default_language,omitempty"`
}

func NewWorkspace(name string) *Workspace {
	return &Workspace{
		Name: name,
		Base: NewBase(),
	}
}
