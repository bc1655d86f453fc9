package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/divan/num2words"
)

// buildContractBindings resolves the variable set substituted into a
// contract template: project, client and business facts plus the dates the
// signing flow needs.
func buildContractBindings(project *models.Project, client *models.Client) map[string]string {
	now := time.Now()
	return map[string]string{
		"client.name":       client.Name,
		"client.company":    client.CompanyName,
		"client.email":      client.Email,
		"client.address":    client.Address,
		"project.name":      project.Name,
		"project.price":     fmt.Sprintf("%.2f", project.Price),
		"project.priceText": amountInWords(project.Price),
		"business.name":     businessName(),
		"business.email":    businessEmail(),
		"date.today":        now.Format("January 2, 2006"),
		"date.expiry":       now.Add(signatureLinkTTL).Format("January 2, 2006"),
	}
}

// amountInWords spells a money amount out for contract and invoice text.
func amountInWords(amount float64) string {
	dollars := int(amount)
	cents := int(math.Round((amount - float64(dollars)) * 100))
	words := num2words.Convert(dollars)
	if cents == 0 {
		return fmt.Sprintf("%s dollars", words)
	}
	return fmt.Sprintf("%s dollars and %02d cents", words, cents)
}

// renderTemplateBody substitutes {{name}} placeholders with their bound
// values.
func renderTemplateBody(body string, bindings map[string]string) string {
	for key, val := range bindings {
		body = strings.ReplaceAll(body, "{{"+key+"}}", val)
	}
	return body
}

// declaredPlaceholders decodes the template's declared placeholder list.
func declaredPlaceholders(t *models.ContractTemplate) []string {
	if t.Placeholders == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(t.Placeholders), &names); err != nil {
		return nil
	}
	return names
}

// fillMissingBindings maps every declared placeholder the resolver could
// not bind to an empty string, so no {{...}} tokens survive rendering.
func fillMissingBindings(declared []string, bindings map[string]string) map[string]string {
	for _, name := range declared {
		if _, ok := bindings[name]; !ok {
			bindings[name] = ""
		}
	}
	return bindings
}

// renderContractFromTemplate produces the frozen contract body and the
// bindings snapshot persisted alongside it.
func renderContractFromTemplate(t *models.ContractTemplate, project *models.Project, client *models.Client) (string, string, error) {
	bindings := buildContractBindings(project, client)
	bindings = fillMissingBindings(declaredPlaceholders(t), bindings)

	body := renderTemplateBody(t.Body, bindings)

	snapshot, err := json.Marshal(bindings)
	if err != nil {
		return "", "", fmt.Errorf("failed to snapshot bindings: %w", err)
	}
	return body, string(snapshot), nil
}
