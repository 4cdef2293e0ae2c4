package nlu

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/api/dialogflow/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DialogflowProvider implements Provider on top of the Dialogflow ES v2 API.
// All resources live under the workspace's agent: projects/<project>/agent.
type DialogflowProvider struct {
	service  *dialogflow.Service
	parent   string
	language string
}

func NewDialogflowProvider(ctx context.Context, config Config) (*DialogflowProvider, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("dialogflow provider requires a project id")
	}

	var opts []option.ClientOption
	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	}

	service, err := dialogflow.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogflow service: %w", err)
	}

	language := config.DefaultLanguage
	if language == "" {
		language = "en"
	}

	log.Printf("DialogflowProvider -> agent projects/%s/agent", config.ProjectID)
	return &DialogflowProvider{
		service:  service,
		parent:   fmt.Sprintf("projects/%s/agent", config.ProjectID),
		language: language,
	}, nil
}

func (p *DialogflowProvider) CreateIntent(ctx context.Context, intent Intent) (string, error) {
	created, err := p.service.Projects.Agent.Intents.
		Create(p.parent, toRemoteIntent(intent)).
		LanguageCode(p.language).
		Context(ctx).Do()
	if err != nil {
		return "", classifyError(err)
	}
	return created.Name, nil
}

func (p *DialogflowProvider) UpdateIntent(ctx context.Context, id string, intent Intent) error {
	remote := toRemoteIntent(intent)
	remote.Name = id
	_, err := p.service.Projects.Agent.Intents.
		Patch(id, remote).
		LanguageCode(p.language).
		Context(ctx).Do()
	return classifyError(err)
}

func (p *DialogflowProvider) DeleteIntent(ctx context.Context, id string) error {
	_, err := p.service.Projects.Agent.Intents.Delete(id).Context(ctx).Do()
	return classifyError(err)
}

func (p *DialogflowProvider) ListIntents(ctx context.Context) ([]Intent, error) {
	var intents []Intent
	call := p.service.Projects.Agent.Intents.List(p.parent).
		LanguageCode(p.language).
		IntentView("INTENT_VIEW_FULL")

	err := call.Pages(ctx, func(page *dialogflow.GoogleCloudDialogflowV2ListIntentsResponse) error {
		for _, remote := range page.Intents {
			intents = append(intents, fromRemoteIntent(remote))
		}
		return nil
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return intents, nil
}

func (p *DialogflowProvider) CreateEntityType(ctx context.Context, entityType EntityType) (string, error) {
	created, err := p.service.Projects.Agent.EntityTypes.
		Create(p.parent, toRemoteEntityType(entityType)).
		LanguageCode(p.language).
		Context(ctx).Do()
	if err != nil {
		return "", classifyError(err)
	}
	return created.Name, nil
}

func (p *DialogflowProvider) UpdateEntityType(ctx context.Context, id string, entityType EntityType) error {
	remote := toRemoteEntityType(entityType)
	remote.Name = id
	_, err := p.service.Projects.Agent.EntityTypes.
		Patch(id, remote).
		LanguageCode(p.language).
		Context(ctx).Do()
	return classifyError(err)
}

func (p *DialogflowProvider) DeleteEntityType(ctx context.Context, id string) error {
	_, err := p.service.Projects.Agent.EntityTypes.Delete(id).Context(ctx).Do()
	return classifyError(err)
}

func (p *DialogflowProvider) ListEntityTypes(ctx context.Context) ([]EntityType, error) {
	var entityTypes []EntityType
	call := p.service.Projects.Agent.EntityTypes.List(p.parent).LanguageCode(p.language)

	err := call.Pages(ctx, func(page *dialogflow.GoogleCloudDialogflowV2ListEntityTypesResponse) error {
		for _, remote := range page.EntityTypes {
			entityTypes = append(entityTypes, fromRemoteEntityType(remote))
		}
		return nil
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return entityTypes, nil
}

// classifyError maps a provider 404 to ErrNotFound, everything else passes
// through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func toRemoteIntent(intent Intent) *dialogflow.GoogleCloudDialogflowV2Intent {
	var phrases []*dialogflow.GoogleCloudDialogflowV2IntentTrainingPhrase
	for _, text := range intent.TrainingPhrases {
		phrases = append(phrases, &dialogflow.GoogleCloudDialogflowV2IntentTrainingPhrase{
			Type: "EXAMPLE",
			Parts: []*dialogflow.GoogleCloudDialogflowV2IntentTrainingPhrasePart{
				{Text: text},
			},
		})
	}
	return &dialogflow.GoogleCloudDialogflowV2Intent{
		DisplayName:     intent.DisplayName,
		TrainingPhrases: phrases,
	}
}

func fromRemoteIntent(remote *dialogflow.GoogleCloudDialogflowV2Intent) Intent {
	var phrases []string
	for _, phrase := range remote.TrainingPhrases {
		text := ""
		for _, part := range phrase.Parts {
			text += part.Text
		}
		phrases = append(phrases, text)
	}
	return Intent{
		ID:              remote.Name,
		DisplayName:     remote.DisplayName,
		TrainingPhrases: phrases,
	}
}

func toRemoteEntityType(entityType EntityType) *dialogflow.GoogleCloudDialogflowV2EntityType {
	var entities []*dialogflow.GoogleCloudDialogflowV2EntityTypeEntity
	for _, entry := range entityType.Entries {
		entities = append(entities, &dialogflow.GoogleCloudDialogflowV2EntityTypeEntity{
			Value:    entry.Value,
			Synonyms: entry.Synonyms,
		})
	}
	return &dialogflow.GoogleCloudDialogflowV2EntityType{
		DisplayName: entityType.DisplayName,
		Kind:        "KIND_MAP",
		Entities:    entities,
	}
}

func fromRemoteEntityType(remote *dialogflow.GoogleCloudDialogflowV2EntityType) EntityType {
	var entries []EntityEntry
	for _, entity := range remote.Entities {
		entries = append(entries, EntityEntry{
			Value:    entity.Value,
			Synonyms: entity.Synonyms,
		})
	}
	return EntityType{
		ID:          remote.Name,
		DisplayName: remote.DisplayName,
		Entries:     entries,
	}
}
