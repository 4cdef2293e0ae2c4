package services

import (
	"botstudio/internal/models"
	"regexp"
)

var attributePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// DeriveAttributes extracts flow-declared variables ({{name}} placeholders in
// response text) into the node's parameter list. Values already set by the
// author survive re-derivation.
func DeriveAttributes(interaction *models.Interaction) {
	existing := make(map[string]models.Parameter, len(interaction.Parameters))
	for _, parameter := range interaction.Parameters {
		existing[parameter.Name] = parameter
	}

	seen := map[string]bool{}
	var derived []models.Parameter
	for _, lang := range interaction.Languages {
		for _, response := range lang.Responses {
			for _, match := range attributePattern.FindAllStringSubmatch(response.Text, -1) {
				name := match[1]
				if seen[name] {
					continue
				}
				seen[name] = true
				if parameter, ok := existing[name]; ok {
					derived = append(derived, parameter)
				} else {
					derived = append(derived, models.Parameter{Name: name})
				}
			}
		}
	}
	interaction.Parameters = derived
}
