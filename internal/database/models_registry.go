package database

import "devcentral/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Reply{},
		&models.Reaction{},
		&models.Share{},
		&models.Follow{},
		&models.CodeSnippet{},
	}
}

// OwnedTables lists tables holding rows that belong to a user, children first.
func OwnedTables() []string {
	return []string{"reactions", "shares", "replies", "follows", "code_snippets", "posts", "profiles", "users"}
}
