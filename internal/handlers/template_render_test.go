package handlers

import (
	"encoding/json"
	"testing"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderContractFromTemplate(t *testing.T) {
	client := &models.Client{
		Name:        "Dana Reyes",
		CompanyName: "Acme Co",
		Email:       "dana@acme.test",
		Address:     "12 Harbor St",
	}
	project := &models.Project{
		Name:  "Acme Website Redesign",
		Price: 4800,
	}
	template := &models.ContractTemplate{
		Name:     "Standard services agreement",
		Category: models.TemplateCategoryStandard,
		Body: "This agreement between {{business.name}} and {{client.name}} of {{client.company}} " +
			"covers {{project.name}} for ${{project.price}} ({{project.priceText}}). " +
			"Special clause: {{custom.clause}}",
		Placeholders: `["client.name","client.company","project.name","project.price","project.priceText","business.name","custom.clause"]`,
	}

	body, snapshot, err := renderContractFromTemplate(template, project, client)
	require.NoError(t, err)

	assert.NotContains(t, body, "{{")
	assert.NotContains(t, body, "}}")
	assert.Contains(t, body, "Dana Reyes")
	assert.Contains(t, body, "Acme Co")
	assert.Contains(t, body, "Acme Website Redesign")
	assert.Contains(t, body, "$4800.00")
	assert.Contains(t, body, "four thousand eight hundred dollars")
	// Declared but unresolvable placeholders render empty.
	assert.Contains(t, body, "Special clause: ")

	var bindings map[string]string
	require.NoError(t, json.Unmarshal([]byte(snapshot), &bindings))
	assert.Equal(t, "Dana Reyes", bindings["client.name"])
	assert.Equal(t, "4800.00", bindings["project.price"])
	assert.Equal(t, "", bindings["custom.clause"])
	assert.NotEmpty(t, bindings["date.today"])
}

func TestAmountInWords(t *testing.T) {
	assert.Equal(t, "one hundred dollars", amountInWords(100))
	assert.Equal(t, "one hundred dollars and 07 cents", amountInWords(100.07))
	assert.Equal(t, "one hundred dollars and 50 cents", amountInWords(100.5))
}

func TestRenderTemplateBodyLeavesUnknownTokensUntouched(t *testing.T) {
	body := renderTemplateBody("Hello {{who}}, from {{where}}", map[string]string{"who": "Dana"})
	assert.Equal(t, "Hello Dana, from {{where}}", body)
}

func TestDeclaredPlaceholders(t *testing.T) {
	assert.Nil(t, declaredPlaceholders(&models.ContractTemplate{}))
	assert.Nil(t, declaredPlaceholders(&models.ContractTemplate{Placeholders: "not json"}))
	assert.Equal(t, []string{"a", "b"}, declaredPlaceholders(&models.ContractTemplate{Placeholders: `["a","b"]`}))
}
