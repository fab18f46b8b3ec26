package seed

import (
	"fmt"
	"log"

	"devcentral/internal/database"
	"devcentral/internal/models"

	"gorm.io/gorm"
)

// Seeder populates a database through a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder with fast password hashing.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, Options{SkipBcrypt: true})}
}

// Factory exposes the underlying factory for ad-hoc rows.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll deletes every row owned by users, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🧹 Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range database.OwnedTables() {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedSocialMesh creates n users and a follow graph where each user follows
// a handful of others. Nobody follows themselves.
func (s *Seeder) SeedSocialMesh(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, u)
	}

	edges := 0
	for i, follower := range users {
		fanout := 1 + s.factory.rng.Intn(5)
		for j := 0; j < fanout && j < len(users)-1; j++ {
			// offset in [1, n-1] so the target is never the follower
			target := users[(i+1+s.factory.rng.Intn(len(users)-1))%len(users)]
			created, err := s.factory.CreateFollow(follower, target)
			if err != nil {
				return nil, fmt.Errorf("follow: %w", err)
			}
			if created {
				edges++
			}
		}
	}

	log.Printf("✓ %d users created with %d follow edges", len(users), edges)
	return users, nil
}

// Engagement summarizes what SeedEngagement wrote.
type Engagement struct {
	Posts     int
	Replies   int
	Reactions int
	Shares    int
	Snippets  int
}

// SeedEngagement creates numPosts posts spread across users, then replies,
// reactions, shares and snippets. Post counters are recomputed from the
// reaction and share rows at the end.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) (*Engagement, error) {
	if len(users) == 0 {
		return &Engagement{}, nil
	}
	rng := s.factory.rng
	stats := &Engagement{}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		posts = append(posts, s.factory.BuildPost(users[rng.Intn(len(users))]))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	stats.Posts = len(posts)

	var reactions []models.Reaction
	var shares []models.Share
	for _, post := range posts {
		for r := rng.Intn(3); r > 0; r-- {
			if _, err := s.factory.CreateReply(users[rng.Intn(len(users))], post); err != nil {
				return nil, fmt.Errorf("create reply: %w", err)
			}
			stats.Replies++
		}

		for _, u := range users {
			switch roll := rng.Intn(10); {
			case roll < 2:
				reactions = append(reactions, models.Reaction{PostID: post.ID, UserID: u.ID, Kind: models.ReactionLike})
			case roll == 2:
				reactions = append(reactions, models.Reaction{PostID: post.ID, UserID: u.ID, Kind: models.ReactionDislike})
			}
			if rng.Intn(20) == 0 {
				shares = append(shares, models.Share{PostID: post.ID, UserID: u.ID})
			}
		}
	}

	if len(reactions) > 0 {
		if err := s.db.Omit("Post", "User").CreateInBatches(&reactions, 200).Error; err != nil {
			return nil, fmt.Errorf("create reactions: %w", err)
		}
	}
	if len(shares) > 0 {
		if err := s.db.Omit("Post", "User").CreateInBatches(&shares, 200).Error; err != nil {
			return nil, fmt.Errorf("create shares: %w", err)
		}
	}
	stats.Reactions = len(reactions)
	stats.Shares = len(shares)

	for _, u := range users {
		if rng.Intn(3) != 0 {
			continue
		}
		if _, err := s.factory.CreateSnippet(u); err != nil {
			return nil, fmt.Errorf("create snippet: %w", err)
		}
		stats.Snippets++
	}

	if err := RecountCounters(s.db); err != nil {
		return nil, err
	}

	log.Printf("✓ %d posts, %d replies, %d reactions, %d shares, %d snippets",
		stats.Posts, stats.Replies, stats.Reactions, stats.Shares, stats.Snippets)
	return stats, nil
}

// RecountCounters rewrites every post's denormalized counters from the
// reaction and share rows.
func RecountCounters(db *gorm.DB) error {
	err := db.Exec(`
		UPDATE posts SET
			likes_count = (SELECT COUNT(*) FROM reactions r WHERE r.post_id = posts.id AND r.kind = ?),
			dislikes_count = (SELECT COUNT(*) FROM reactions r WHERE r.post_id = posts.id AND r.kind = ?),
			shares_count = (SELECT COUNT(*) FROM shares s WHERE s.post_id = posts.id)
	`, models.ReactionLike, models.ReactionDislike).Error
	if err != nil {
		return fmt.Errorf("recount post counters: %w", err)
	}
	return nil
}
