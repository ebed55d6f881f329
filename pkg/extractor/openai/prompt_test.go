package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinConversation(t *testing.T) {
	joined := joinConversation([]string{
		"Patient slept well.",
		"She mentioned a new rash after taking amoxicillin.",
	})

	assert.Equal(t,
		"Message 1: Patient slept well.\nMessage 2: She mentioned a new rash after taking amoxicillin.",
		joined)
}

func TestJoinConversationSingleTurn(t *testing.T) {
	assert.Equal(t, "Message 1: note", joinConversation([]string{"note"}))
}

func TestSystemPromptPriorityGuidance(t *testing.T) {
	// Medications must be extracted as critical so the dose-change check
	// on the write path can see them.
	assert.Contains(t, systemPrompt, "ALLERGIES and MEDICATIONS are CRITICAL priority")
	assert.Contains(t, systemPrompt, "Medical conditions and diagnoses are HIGH priority")
}
