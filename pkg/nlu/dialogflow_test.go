package nlu

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/dialogflow/v2"
	"google.golang.org/api/googleapi"
)

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(nil))

	gone := classifyError(&googleapi.Error{Code: http.StatusNotFound, Message: "intent gone"})
	assert.True(t, IsNotFound(gone))

	denied := classifyError(&googleapi.Error{Code: http.StatusForbidden, Message: "no access"})
	assert.False(t, IsNotFound(denied))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyError(plain))
}

func TestIntentConversionRoundTrip(t *testing.T) {
	local := Intent{
		DisplayName:     "64f0c0ffee00000000000001",
		TrainingPhrases: []string{"a pizza please", "order a pizza"},
	}

	remote := toRemoteIntent(local)
	require.Len(t, remote.TrainingPhrases, 2)
	assert.Equal(t, "EXAMPLE", remote.TrainingPhrases[0].Type)

	remote.Name = "projects/p/agent/intents/abc"
	back := fromRemoteIntent(remote)
	assert.Equal(t, "projects/p/agent/intents/abc", back.ID)
	assert.Equal(t, local.DisplayName, back.DisplayName)
	assert.Equal(t, local.TrainingPhrases, back.TrainingPhrases)
}

func TestFromRemoteIntent_JoinsAnnotatedParts(t *testing.T) {
	remote := &dialogflow.GoogleCloudDialogflowV2Intent{
		Name:        "projects/p/agent/intents/abc",
		DisplayName: "annotated",
		TrainingPhrases: []*dialogflow.GoogleCloudDialogflowV2IntentTrainingPhrase{
			{Parts: []*dialogflow.GoogleCloudDialogflowV2IntentTrainingPhrasePart{
				{Text: "deliver to "},
				{Text: "Berlin", EntityType: "@sys.geo-city"},
			}},
		},
	}

	back := fromRemoteIntent(remote)
	assert.Equal(t, []string{"deliver to Berlin"}, back.TrainingPhrases)
}

func TestEntityTypeConversion(t *testing.T) {
	local := EntityType{
		DisplayName: "toppings",
		Entries: []EntityEntry{
			{Value: "cheese", Synonyms: []string{"mozzarella", "cheddar"}},
		},
	}

	remote := toRemoteEntityType(local)
	assert.Equal(t, "KIND_MAP", remote.Kind)
	require.Len(t, remote.Entities, 1)
	assert.Equal(t, []string{"mozzarella", "cheddar"}, remote.Entities[0].Synonyms)

	remote.Name = fmt.Sprintf("projects/p/agent/entityTypes/%s", "xyz")
	back := fromRemoteEntityType(remote)
	assert.Equal(t, local.DisplayName, back.DisplayName)
	assert.Equal(t, local.Entries, back.Entries)
}
