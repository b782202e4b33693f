package seed

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/studygraph/internal/app/models"
	appRepos "github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/auth"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// Profile is one demo account
type Profile struct {
	Username string
	Password string
	Courses  []appModels.Course
}

// Email returns the demo account's login email
func (p Profile) Email() string {
	return p.Username + "@purdue.edu"
}

// Profiles are the demo accounts created by CreateDefaultData
var Profiles = []Profile{
	{
		Username: "amelia",
		Password: "Boiler#1",
		Courses: []appModels.Course{
			{ID: "cs180-amelia", CourseName: "CS 18000 - Problem Solving and Object-Oriented Programming", Professor: "Prof. Li", Location: "Lawson 1142", Time: "MWF · 10:30a-11:20a"},
			{ID: "math261-amelia", CourseName: "MA 26100 - Multivariate Calculus", Professor: "Dr. Owens", Location: "WALC 1055", Time: "TR · 12:00p-1:15p"},
		},
	},
	{
		Username: "rahul",
		Password: "Boiler#2",
		Courses: []appModels.Course{
			{ID: "cs180-rahul", CourseName: "CS 18000 - Problem Solving and Object-Oriented Programming", Professor: "Prof. Li", Location: "Lawson 1142", Time: "MWF · 10:30a-11:20a"},
			{ID: "stat350-rahul", CourseName: "STAT 35000 - Intro to Statistics", Professor: "Dr. Patel", Location: "REC 108", Time: "TR · 9:00a-10:15a"},
		},
	},
	{
		Username: "linh",
		Password: "Boiler#3",
		Courses: []appModels.Course{
			{ID: "math261-linh", CourseName: "MA 26100 - Multivariate Calculus", Professor: "Dr. Owens", Location: "WALC 1055", Time: "TR · 12:00p-1:15p"},
			{ID: "eng106-linh", CourseName: "ENGL 10600 - First-Year Composition", Professor: "Prof. Alvarez", Location: "HEAV 220", Time: "MWF · 2:30p-3:20p"},
		},
	},
}

// Friendships are the demo friendships
var Friendships = map[string][]string{
	"amelia": {"rahul"},
	"rahul":  {"amelia"},
}

// CreateDefaultData creates the demo accounts and friendships if they don't exist.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo profiles...")
	var finalErr error // To collect potential errors without stopping the process

	for _, p := range Profiles {
		if _, err := repos.UserRepository.GetByEmail(ctx, p.Email()); err == nil {
			lgr.Info().Str("username", p.Username).Msg("Demo profile already exists, skipping creation")
			continue
		} else if !errors.Is(err, apperrors.ErrUserNotFound) {
			lgr.Error().Err(err).Str("username", p.Username).Msg("Error checking demo profile")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		hashedPassword, err := auth.HashPassword(p.Password)
		if err != nil {
			lgr.Error().Err(err).Msg("Error hashing demo password")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		user := &appModels.User{
			ID:       uuid.New().String(),
			Email:    p.Email(),
			Username: p.Username,
			Password: hashedPassword,
		}
		if err := repos.UserRepository.Create(ctx, user); err != nil {
			lgr.Error().Err(err).Str("username", p.Username).Msg("Error creating demo profile")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if err := repos.UserRepository.ReplaceCourses(ctx, user.ID, p.Courses, nil); err != nil {
			lgr.Error().Err(err).Str("username", p.Username).Msg("Error storing demo courses")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Str("username", p.Username).Str("userId", user.ID).Msg("Demo profile created")
	}

	ledger, err := repos.FriendshipRepository.GetLedger(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Error loading friendships")
		return errors.Join(finalErr, err)
	}
	for user, friends := range Friendships {
		for _, f := range friends {
			ledger = friendship.ConfirmFriendship(ledger, user, f)
		}
	}
	keys := make([]string, 0, len(Friendships))
	for user := range Friendships {
		keys = append(keys, user)
	}
	if err := repos.FriendshipRepository.SaveEntries(ctx, ledger, keys...); err != nil {
		lgr.Error().Err(err).Msg("Error saving demo friendships")
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Demo data check/creation finished.")
	return finalErr
}
