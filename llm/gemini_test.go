package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiContents(t *testing.T) {
	out := contents([]Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
		{Role: RoleUser, Content: "follow-up"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, genai.RoleUser, string(out[0].Role))
	assert.Equal(t, genai.RoleModel, string(out[1].Role), "assistant turns travel under the model role")
	assert.Equal(t, genai.RoleUser, string(out[2].Role))

	require.Len(t, out[0].Parts, 1)
	assert.Equal(t, "question", out[0].Parts[0].Text)
}
