package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"devcentral/internal/markdown"
	"devcentral/internal/models"
	"devcentral/internal/repository"
)

// SnippetInput is the snippet create form.
type SnippetInput struct {
	Title    string
	Language string
	Code     string
}

type SnippetService struct {
	snippets repository.SnippetRepository
	renderer markdown.Renderer
}

func NewSnippetService(snippets repository.SnippetRepository, renderer markdown.Renderer) *SnippetService {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	return &SnippetService{snippets: snippets, renderer: renderer}
}

// Languages lists the accepted language choices.
func (s *SnippetService) Languages() []string {
	return models.SnippetLanguages
}

func (s *SnippetService) Create(ctx context.Context, actorID uint, in SnippetInput) (*models.CodeSnippet, error) {
	title := strings.TrimSpace(in.Title)
	lang := strings.ToLower(strings.TrimSpace(in.Language))
	if lang == "" {
		lang = models.LanguagePython
	}

	fields := map[string]string{}
	switch {
	case title == "":
		fields["title"] = "This field is required."
	case utf8.RuneCountInString(title) > models.MaxSnippetTitleLength:
		fields["title"] = "Ensure this value has at most 100 characters."
	}
	if !models.IsSnippetLanguage(lang) {
		fields["language"] = "Select a valid choice."
	}
	if strings.TrimSpace(in.Code) == "" {
		fields["code"] = "This field is required."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	snippet := &models.CodeSnippet{AuthorID: actorID, Title: title, Language: lang, Code: in.Code}
	if err := s.snippets.Create(ctx, snippet); err != nil {
		return nil, err
	}
	return snippet, nil
}

func (s *SnippetService) List(ctx context.Context) ([]*models.CodeSnippet, error) {
	return s.snippets.List(ctx)
}

// Get returns a snippet with its code rendered as a fenced block.
func (s *SnippetService) Get(ctx context.Context, id uint) (*models.CodeSnippet, error) {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snippet.RenderedHTML = markdown.RenderOrNil(ctx, s.renderer, markdown.CodeBlock(snippet.Language, snippet.Code))
	return snippet, nil
}

// Delete removes a snippet. Only the author may delete.
func (s *SnippetService) Delete(ctx context.Context, actorID, id uint) error {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if snippet.AuthorID != actorID {
		return models.NewForbiddenError("You can only delete your own snippets.")
	}
	return s.snippets.Delete(ctx, id)
}
