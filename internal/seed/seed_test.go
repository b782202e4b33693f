package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studygraph/internal/app/repositories/memory"
	"github.com/yigit/studygraph/internal/pkg/auth"
	"github.com/yigit/studygraph/internal/pkg/friendship"
	"github.com/yigit/studygraph/internal/pkg/matching"
)

func TestCreateDefaultData_IsIdempotent(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	repos := memory.NewRepositories()

	require.NoError(t, CreateDefaultData(ctx, repos, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, repos, zerolog.Nop()))

	users, err := repos.UserRepository.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "amelia", users[0].Username)
	assert.True(t, auth.CheckPassword(users[0].Password, "Boiler#1"))

	ledger, err := repos.FriendshipRepository.GetLedger(ctx)
	require.NoError(t, err)
	assert.True(t, friendship.IsFriend(ledger, "amelia", "rahul"))
	assert.True(t, friendship.IsFriend(ledger, "rahul", "amelia"))
	assert.Empty(t, ledger.Friends("linh"))

	matches := matching.ComputeMatches("amelia", matching.CourseMapFromUsers(users))
	require.Len(t, matches, 2)
	assert.Equal(t, 50, matches[0].Score)
}
