package models

import "time"

// Snippet languages accepted by the create form.
const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
	LanguageJava       = "java"
	LanguageCPP        = "cpp"
	LanguageCSharp     = "csharp"
	LanguageHTML       = "html"
	LanguageCSS        = "css"
	LanguageSQL        = "sql"
)

// SnippetLanguages lists choices in display order.
var SnippetLanguages = []string{
	LanguagePython, LanguageJavaScript, LanguageJava, LanguageCPP,
	LanguageCSharp, LanguageHTML, LanguageCSS, LanguageSQL,
}

// MaxSnippetTitleLength bounds CodeSnippet.Title.
const MaxSnippetTitleLength = 100

// CodeSnippet is a titled piece of source code shared by its author.
type CodeSnippet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Language  string    `gorm:"size:20;not null;default:python" json:"language"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// RenderedHTML is the code as a highlighted block (computed)
	RenderedHTML *string `gorm:"-" json:"rendered_html,omitempty"`
}

// TableName pins the table name used by the SQL migrations.
func (CodeSnippet) TableName() string {
	return "code_snippets"
}

// IsSnippetLanguage reports whether lang is an accepted choice.
func IsSnippetLanguage(lang string) bool {
	for _, l := range SnippetLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
