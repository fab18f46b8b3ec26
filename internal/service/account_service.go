package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"devcentral/internal/middleware"
	"devcentral/internal/models"
	"devcentral/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is the signup form.
type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password1 string
	Password2 string
	Bio       string
	Avatar    *Upload
}

// UpdateProfileInput is the profile edit form. A nil Avatar keeps the current one.
type UpdateProfileInput struct {
	Bio    string
	Avatar *Upload
}

type AccountService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	media   *MediaService
}

func NewAccountService(users repository.UserRepository, follows repository.FollowRepository, media *MediaService) *AccountService {
	return &AccountService{users: users, follows: follows, media: media}
}

// Register creates the user and their profile as one unit.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Bio = strings.TrimSpace(in.Bio)

	fields := map[string]string{}
	switch {
	case in.Username == "":
		fields["username"] = "This field is required."
	case utf8.RuneCountInString(in.Username) > maxUsernameLength:
		fields["username"] = "Ensure this value has at most 150 characters."
	case !usernamePattern.MatchString(in.Username):
		fields["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	if in.Email == "" {
		fields["email"] = "This field is required."
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		fields["email"] = "Enter a valid email address."
	}
	switch {
	case in.Password1 == "":
		fields["password1"] = "This field is required."
	case utf8.RuneCountInString(in.Password1) < minPasswordLength:
		fields["password1"] = "This password is too short. It must contain at least 8 characters."
	case in.Password1 != in.Password2:
		fields["password2"] = "The two password fields didn't match."
	}
	if utf8.RuneCountInString(in.Bio) > models.MaxBioLength {
		fields["bio"] = "Ensure this value has at most 280 characters."
	}

	var avatar *ProcessedImage
	if in.Avatar != nil && len(fields) == 0 {
		img, err := s.media.Process(MediaAvatars, "avatar", *in.Avatar)
		if err != nil {
			return nil, err
		}
		avatar = img
	}

	if _, ok := fields["username"]; !ok && in.Username != "" {
		taken, err := s.users.UsernameTaken(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			fields["username"] = "A user with that username already exists."
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hashed),
	}
	profile := &models.Profile{Bio: in.Bio}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	// The avatar path needs the user id, so it is written after the insert.
	if avatar != nil {
		rel, err := s.media.Save(user.ID, avatar)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "store signup avatar",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("error", err.Error()),
			)
			return user, nil
		}
		profile.Avatar = rel
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Login checks a username and password pair.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Please enter a correct username and password.")
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := s.checkPassword(ctx, user.ID, password); err != nil {
		if models.HasCode(err, models.CodeValidation) {
			return nil, invalid
		}
		return nil, err
	}
	return user, nil
}

// Profile assembles a profile page for viewerID.
func (s *AccountService) Profile(ctx context.Context, viewerID uint, username string) (*models.ProfileView, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, err := s.follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	view := &models.ProfileView{
		User:           user,
		AvatarURL:      s.avatarURL(user),
		FollowersCount: followers,
		FollowingCount: following,
		IsOwner:        viewerID == user.ID,
	}
	if !view.IsOwner && viewerID != 0 {
		if view.IsFollowing, err = s.follows.Exists(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// UpdateProfile edits username's profile. Only the owner may do so.
func (s *AccountService) UpdateProfile(ctx context.Context, actorID uint, username string, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.ID != actorID {
		return nil, models.NewForbiddenError("You can only edit your own profile.")
	}

	bio := strings.TrimSpace(in.Bio)
	if utf8.RuneCountInString(bio) > models.MaxBioLength {
		return nil, models.NewFieldValidationError(map[string]string{"bio": "Ensure this value has at most 280 characters."})
	}

	if user.Profile == nil {
		user.Profile = &models.Profile{UserID: user.ID}
	}
	previous := user.Profile.Avatar
	user.Profile.Bio = bio

	if in.Avatar != nil {
		img, err := s.media.Process(MediaAvatars, "avatar", *in.Avatar)
		if err != nil {
			return nil, err
		}
		rel, err := s.media.Save(user.ID, img)
		if err != nil {
			return nil, err
		}
		user.Profile.Avatar = rel
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != user.Profile.Avatar {
		s.media.Remove(previous)
	}
	return user, nil
}

// ListUsers returns every user other than viewerID, marked with whether the viewer follows them.
func (s *AccountService) ListUsers(ctx context.Context, viewerID uint) ([]models.UserListEntry, error) {
	users, err := s.users.List(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := s.follows.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.UserListEntry, len(users))
	for i, u := range users {
		entries[i] = models.UserListEntry{User: u, IsFollowing: followed[u.ID]}
	}
	return entries, nil
}

// DeleteAccount permanently removes actorID and everything they own once
// password matches the stored credential.
func (s *AccountService) DeleteAccount(ctx context.Context, actorID uint, password string) error {
	if password == "" {
		return models.NewFieldValidationError(map[string]string{"password": "This field is required."})
	}
	if err := s.checkPassword(ctx, actorID, password); err != nil {
		return err
	}
	if err := s.users.DeleteCascade(ctx, actorID); err != nil {
		return err
	}
	if s.media != nil {
		if err := s.media.RemoveOwned(actorID); err != nil {
			middleware.Logger.WarnContext(ctx, "remove media of deleted user",
				slog.Uint64("user_id", uint64(actorID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (s *AccountService) checkPassword(ctx context.Context, userID uint, password string) error {
	hash, err := s.users.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return models.NewFieldValidationError(map[string]string{"password": "Incorrect password."})
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AccountService) avatarURL(user *models.User) string {
	if user.Profile == nil {
		return ""
	}
	return s.media.URL(user.Profile.Avatar)
}
