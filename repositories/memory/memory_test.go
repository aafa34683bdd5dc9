package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-rating-server/entities"
	"store-rating-server/repositories"
)

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &entities.User{Name: "a", Email: "a@example.com"}))
	err := users.Create(ctx, &entities.User{Name: "b", Email: "a@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestUserListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	require.NoError(t, users.Create(ctx, &entities.User{Name: "Zed", Email: "a@example.com", Role: entities.RoleSystemAdmin}))
	require.NoError(t, users.Create(ctx, &entities.User{Name: "Amy", Email: "z@example.com", Address: "Elm Road"}))
	require.NoError(t, users.Create(ctx, &entities.User{Name: "Bob", Email: "m@example.com", Role: entities.RoleStoreOwner}))

	all, err := users.List(ctx, repositories.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Amy", "Bob", "Zed"}, names(all))

	byEmail, err := users.List(ctx, repositories.UserFilter{SortBy: repositories.SortByEmail})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Bob", "Amy"}, names(byEmail))

	admins, err := users.List(ctx, repositories.UserFilter{Role: entities.RoleSystemAdmin})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed"}, names(admins))

	elm, err := users.List(ctx, repositories.UserFilter{Search: "ELM"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Amy"}, names(elm))
}

func names(users []entities.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func TestRatingUpsertKeepsOneRowPerUserAndStore(t *testing.T) {
	ctx := context.Background()
	ratings := New().Ratings()

	first, err := ratings.Upsert(ctx, "u1", "s1", 2)
	require.NoError(t, err)
	assert.True(t, first.Inserted)

	second, err := ratings.Upsert(ctx, "u1", "s1", 5)
	require.NoError(t, err)
	assert.False(t, second.Inserted)
	assert.Equal(t, first.ID, second.ID)

	values, err := ratings.ValuesByStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, values)
}

func TestRatingUpsertIsAtomicUnderContention(t *testing.T) {
	ctx := context.Background()
	ratings := New().Ratings()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, _ = ratings.Upsert(ctx, "u1", "s1", v%5+1)
		}(i)
	}
	wg.Wait()

	n, err := ratings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestListByStoreWithUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := &entities.User{Name: "Alice", Email: "alice@example.com"}
	bob := &entities.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, s.Users().Create(ctx, alice))
	require.NoError(t, s.Users().Create(ctx, bob))

	_, err := s.Ratings().Upsert(ctx, alice.ID, "s1", 3)
	require.NoError(t, err)
	_, err = s.Ratings().Upsert(ctx, bob.ID, "s1", 4)
	require.NoError(t, err)

	list, err := s.Ratings().ListByStoreWithUser(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)
	assert.Equal(t, "bob@example.com", list[0].Email)
	assert.Equal(t, "Alice", list[1].Name)
}
