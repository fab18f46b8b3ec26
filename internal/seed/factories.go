// Package seed provides helpers to create demo data for development and
// tests. Nothing here runs in production.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"devcentral/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is set on every generated account.
const DefaultPassword = "password123"

// Options tune generated data.
type Options struct {
	// SkipBcrypt hashes the default password once and reuses it.
	SkipBcrypt bool
	// MaxDays spreads created_at up to this many days into the past.
	MaxDays int
}

// Factory builds domain rows and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand

	passwordHash string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

func (f *Factory) hash() (string, error) {
	if f.passwordHash != "" && f.opts.SkipBcrypt {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hashed)
	return f.passwordHash, nil
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user with their profile. Overrides run before insert.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.hash()
	if err != nil {
		return nil, err
	}

	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Username:  usernameFor(first, last, gofakeit.Number(100, 9999)),
		Email:     gofakeit.Email(),
		FirstName: first,
		LastName:  last,
		Password:  hashed,
		Profile:   &models.Profile{Bio: truncate(gofakeit.Sentence(10), models.MaxBioLength)},
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author with a markdown body.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	body := gofakeit.Paragraph(1, 2, 8, "\n\n")
	switch f.rng.Intn(4) {
	case 0:
		body = fmt.Sprintf("**%s**\n\n%s", gofakeit.HipsterSentence(4), body)
	case 1:
		body = fmt.Sprintf("%s\n\n- %s\n- %s", gofakeit.Sentence(6), gofakeit.BuzzWord(), gofakeit.BuzzWord())
	case 2:
		body = fmt.Sprintf("%s `%s`", gofakeit.Sentence(8), gofakeit.ProgrammingLanguage())
	}

	post := &models.Post{
		AuthorID:  author.ID,
		Body:      truncate(body, models.MaxPostBodyLength),
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Author").CreateInBatches(&posts, 100).Error
}

// CreateReply persists a reply by author on post.
func (f *Factory) CreateReply(author *models.User, post *models.Post, overrides ...func(*models.Reply)) (*models.Reply, error) {
	at := post.CreatedAt.Add(time.Duration(f.rng.Intn(72)+1) * time.Hour)
	if now := time.Now(); at.After(now) {
		at = now
	}
	reply := &models.Reply{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Body:      truncate(gofakeit.Sentence(12), models.MaxReplyBodyLength),
		CreatedAt: at,
	}
	for _, override := range overrides {
		override(reply)
	}
	if err := f.db.Omit("Author", "Post").Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

// CreateFollow persists follower -> following and reports whether the edge
// is new. An existing edge is left alone.
func (f *Factory) CreateFollow(follower, following *models.User) (bool, error) {
	res := f.db.Omit("Follower", "Following").Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
	})
	return res.RowsAffected > 0, res.Error
}

// CreateSnippet persists a code snippet in a random language.
func (f *Factory) CreateSnippet(author *models.User, overrides ...func(*models.CodeSnippet)) (*models.CodeSnippet, error) {
	lang := models.SnippetLanguages[f.rng.Intn(len(models.SnippetLanguages))]
	snippet := &models.CodeSnippet{
		AuthorID:  author.ID,
		Title:     truncate(gofakeit.HipsterSentence(4), models.MaxSnippetTitleLength),
		Language:  lang,
		Code:      sampleCode(lang),
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(snippet)
	}
	if err := f.db.Omit("Author").Create(snippet).Error; err != nil {
		return nil, err
	}
	return snippet, nil
}

func sampleCode(lang string) string {
	name := strings.ToLower(gofakeit.Noun())
	switch lang {
	case models.LanguagePython:
		return fmt.Sprintf("def %s(items):\n    return [i * 2 for i in items]\n", name)
	case models.LanguageJavaScript:
		return fmt.Sprintf("const %s = (items) => items.map((i) => i * 2);\n", name)
	case models.LanguageSQL:
		return fmt.Sprintf("SELECT id, created_at\nFROM %s\nORDER BY created_at DESC;\n", name)
	case models.LanguageHTML:
		return fmt.Sprintf("<section class=\"%s\">\n  <h1>Hello</h1>\n</section>\n", name)
	case models.LanguageCSS:
		return fmt.Sprintf(".%s {\n  display: grid;\n  gap: 1rem;\n}\n", name)
	default:
		return fmt.Sprintf("int %s(int x) {\n    return x * 2;\n}\n", name)
	}
}

// usernameFor keeps only characters accepted at signup.
func usernameFor(first, last string, n int) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, strings.ToLower(first+"_"+last))
	return fmt.Sprintf("%s%d", clean, n)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
