package openai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare-labs/caremem-go/pkg/extractor/openai"
	"github.com/homecare-labs/caremem-go/pkg/utils/logging"
)

func TestParseFacts(t *testing.T) {
	arguments := `{
		"facts": [
			{"category": "allergy", "priority": "critical", "content": "Allergic to penicillin"},
			{"category": "preference", "priority": "normal", "content": "Prefers dinner at 6pm"}
		]
	}`

	facts, err := openai.ParseFacts(arguments, logging.Default())
	require.NoError(t, err)

	require.Len(t, facts, 2)
	assert.Equal(t, "allergy", facts[0].Category)
	assert.Equal(t, "critical", facts[0].Priority)
	assert.Equal(t, "Allergic to penicillin", facts[0].Content)
}

func TestParseFactsDropsMalformedEntries(t *testing.T) {
	arguments := `{
		"facts": [
			{"category": "allergy", "priority": "critical", "content": "Allergic to penicillin"},
			{"category": "bogus", "priority": "critical", "content": "bad category"},
			{"category": "observation", "priority": "normal", "content": ""},
			{"category": "medication", "priority": "high", "content": "Metformin 500mg"}
		]
	}`

	facts, err := openai.ParseFacts(arguments, logging.Default())
	require.NoError(t, err)

	// Only the well-formed entries survive.
	require.Len(t, facts, 2)
	assert.Equal(t, "Allergic to penicillin", facts[0].Content)
	assert.Equal(t, "Metformin 500mg", facts[1].Content)
}

func TestParseFactsEmptyList(t *testing.T) {
	facts, err := openai.ParseFacts(`{"facts": []}`, logging.Default())
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestParseFactsInvalidJSON(t *testing.T) {
	_, err := openai.ParseFacts(`{"facts": [`, logging.Default())
	assert.Error(t, err)
}
