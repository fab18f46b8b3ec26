package service

import (
	"context"
	"strings"
	"testing"

	"devcentral/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetService_CreateValidation(t *testing.T) {
	st := newStack(t)
	alice := st.register(t, "alice")
	svc := NewSnippetService(st.snippets, nil)

	_, err := svc.Create(context.Background(), alice.ID, SnippetInput{Title: "", Language: "rust", Code: " "})
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "language")
	assert.Contains(t, appErr.Fields, "code")

	_, err = svc.Create(context.Background(), alice.ID, SnippetInput{Title: strings.Repeat("t", 101), Code: "x"})
	assertAppError(t, err, models.CodeValidation)
}

func TestSnippetService_DefaultsAndRendering(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	alice := st.register(t, "alice")
	svc := NewSnippetService(st.snippets, nil)

	created, err := svc.Create(ctx, alice.ID, SnippetInput{Title: "hello", Code: "print('<hi>')"})
	require.NoError(t, err)
	assert.Equal(t, models.LanguagePython, created.Language)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RenderedHTML)
	assert.Contains(t, *got.RenderedHTML, `class="language-python"`)
	assert.Contains(t, *got.RenderedHTML, "&lt;hi&gt;")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, models.SnippetLanguages, svc.Languages())
}

func TestSnippetService_DeleteOwnerOnly(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	alice := st.register(t, "alice")
	bob := st.register(t, "bob")
	svc := NewSnippetService(st.snippets, nil)

	snippet, err := svc.Create(ctx, alice.ID, SnippetInput{Title: "mine", Language: "sql", Code: "SELECT 1"})
	require.NoError(t, err)

	assertAppError(t, svc.Delete(ctx, bob.ID, snippet.ID), models.CodeForbidden)
	require.NoError(t, svc.Delete(ctx, alice.ID, snippet.ID))
	assertAppError(t, svc.Delete(ctx, alice.ID, snippet.ID), models.CodeNotFound)
}
