package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/companion-chat/internal/llm"
	"github.com/capitalize-ai/companion-chat/internal/model"
)

func loadPersonas(t *testing.T) *Personas {
	t.Helper()
	p, err := LoadPersonas()
	require.NoError(t, err)
	return p
}

func TestSystemPrompt(t *testing.T) {
	p := loadPersonas(t)

	foodie := p.SystemPrompt(model.PersonaFoodie, "")
	assert.True(t, strings.HasPrefix(foodie, "You are Foodie Friend"))
	assert.NotContains(t, foodie, "User's preferences")

	withPrefs := p.SystemPrompt(model.PersonaTravel, "food: sushi")
	assert.True(t, strings.HasPrefix(withPrefs, "You are Travel Guru"))
	assert.True(t, strings.HasSuffix(withPrefs, "\nUser's preferences: food: sushi"))

	assert.Equal(t, foodie, p.SystemPrompt(model.Persona("pirate"), ""))
}

func TestParsePersonas_Invalid(t *testing.T) {
	_, err := ParsePersonas([]byte("personas:\n  travel:\n    system: x\npreferences_clause: \"{{preferences}}\"\n"))
	require.ErrorContains(t, err, "foodie")

	_, err = ParsePersonas([]byte("personas:\n  foodie:\n    system: x\npreferences_clause: none\n"))
	require.ErrorContains(t, err, "preferences clause")

	_, err = ParsePersonas([]byte("personas: ["))
	require.Error(t, err)
}

func TestPreferenceContext(t *testing.T) {
	assert.Empty(t, PreferenceContext(nil))
	assert.Empty(t, PreferenceContext(&model.PreferenceGraph{}))

	g := &model.PreferenceGraph{Graph: map[string][]string{
		"travel": {"beaches"},
		"food":   {"sushi", "ramen"},
		"music":  {},
	}}
	assert.Equal(t, "food: sushi, ramen; travel: beaches", PreferenceContext(g))
}

func TestBuild_WindowAndRoles(t *testing.T) {
	a := NewAssembler(loadPersonas(t), 2)

	history := []model.ChatTurn{
		{Author: model.AuthorUser, Text: "one"},
		{Author: model.AuthorAssistant, Text: "two"},
		{Author: model.AuthorUser, Text: "three"},
	}
	msgs := a.Build(model.PersonaShopping, "", history, "four")

	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "You are Shopping Assistant"))
	assert.Equal(t, llm.ChatMessage{Role: llm.RoleAssistant, Content: "two"}, msgs[1])
	assert.Equal(t, llm.ChatMessage{Role: llm.RoleUser, Content: "three"}, msgs[2])
	assert.Equal(t, llm.ChatMessage{Role: llm.RoleUser, Content: "four"}, msgs[3])
}

func TestBuild_DefaultWindow(t *testing.T) {
	a := NewAssembler(loadPersonas(t), 0)
	assert.Equal(t, DefaultHistoryWindow, a.Window())

	var history []model.ChatTurn
	for i := 0; i < 15; i++ {
		history = append(history, model.ChatTurn{Author: model.AuthorUser, Text: fmt.Sprint(i)})
	}
	msgs := a.Build(model.PersonaFoodie, "", history, "now")
	require.Len(t, msgs, DefaultHistoryWindow+2)
	assert.Equal(t, "5", msgs[1].Content)
}

func TestWithEvidence(t *testing.T) {
	assert.Equal(t, "hi", WithEvidence("hi", nil, 3))

	results := []model.WebResult{
		{Title: "A", Snippet: "a"},
		{Title: "B", Snippet: "b"},
		{Title: "C", Snippet: "c"},
		{Title: "D", Snippet: "d"},
	}
	got := WithEvidence("best pizza", results, 3)
	assert.Equal(t, "best pizza\n\nSearch results:\n- A: a\n- B: b\n- C: c\n", got)
}
