package dtos

type SuggestPhrasesRequest struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type SuggestPhrasesResponse struct {
	InteractionID string   `json:"interaction_id"`
	Suggestions   []string `json:"suggestions"`
}
