package usecases

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-rating-server/auth"
	"store-rating-server/entities"
	"store-rating-server/repositories"
	"store-rating-server/repositories/memory"
)

const validPassword = "Secret#123"

type fixture struct {
	mem     *memory.Store
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenIssuer
	auth    *AuthUseCase
	users   *UserUseCase
	stores  *StoreUseCase
	ratings *RatingUseCase
	pub     *recordingPublisher
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entities.RatingAggregate
}

func (p *recordingPublisher) Publish(_ string, agg entities.RatingAggregate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, agg)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		mem:    memory.New(),
		hasher: auth.NewPasswordHasher(4),
		tokens: auth.NewTokenIssuer("secret", time.Hour),
		pub:    &recordingPublisher{},
	}
	f.auth = NewAuthUseCase(f.mem.Users(), f.hasher, f.tokens)
	f.users = NewUserUseCase(f.mem.Users(), f.mem.Stores(), f.mem.Ratings(), f.hasher)
	f.stores = NewStoreUseCase(f.mem.Stores(), f.mem.Users(), f.mem.Ratings())
	f.ratings = NewRatingUseCase(f.mem.Ratings(), f.mem.Stores(), f.pub, log)
	return f
}

func (f *fixture) signup(t *testing.T, email string, role entities.Role) *Session {
	t.Helper()
	s, err := f.auth.Signup(context.Background(), SignupInput{
		Name:     "Alexandra Montgomery Jr",
		Email:    email,
		Password: validPassword,
		Role:     string(role),
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) store(t *testing.T, name string, owner string) *entities.Store {
	t.Helper()
	st, err := f.stores.Create(context.Background(), CreateStoreInput{Name: name, Address: "1 Main Street", OwnerID: owner})
	require.NoError(t, err)
	return st
}

func assertKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var ue *Error
	require.True(t, errors.As(err, &ue), "expected use case error, got %v", err)
	assert.Equal(t, kind, ue.Kind)
	assert.Equal(t, msg, ue.Message)
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.signup(t, "alex@example.com", "")
	assert.Equal(t, entities.RoleNormalUser, s.Role)
	p, err := f.tokens.Verify(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, p.UserID)

	stored, err := f.mem.Users().GetByEmail(ctx, "alex@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, validPassword, stored.PasswordHash)

	login, err := f.auth.Login(ctx, "alex@example.com", validPassword)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, login.UserID)
}

func TestSignupRejectsDuplicateEmailAndBadRole(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alex@example.com", "")

	_, err := f.auth.Signup(context.Background(), SignupInput{Name: "Someone Else Entirely Here", Email: "alex@example.com", Password: validPassword})
	assertKind(t, err, KindConflict, "Email already registered")

	_, err = f.auth.Signup(context.Background(), SignupInput{Name: "Someone Else Entirely Here", Email: "b@example.com", Password: validPassword, Role: "root"})
	assertKind(t, err, KindValidation, "Invalid role")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alex@example.com", "")

	_, unknown := f.auth.Login(context.Background(), "nobody@example.com", validPassword)
	_, wrong := f.auth.Login(context.Background(), "alex@example.com", "Wrong#123")
	assertKind(t, unknown, KindAuth, "Invalid credentials")
	assertKind(t, wrong, KindAuth, "Invalid credentials")
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.signup(t, "alex@example.com", "")

	assertKind(t, f.users.UpdatePassword(ctx, s.UserID, "Wrong#123", "Newpass#1"), KindAuth, "Current password is incorrect")
	assertKind(t, f.users.UpdatePassword(ctx, s.UserID, validPassword, "weak"), KindValidation,
		"Password must be 8-16 characters with 1 uppercase letter and 1 special character")
	assertKind(t, f.users.UpdatePassword(ctx, "missing", validPassword, "Newpass#1"), KindNotFound, "User not found")

	require.NoError(t, f.users.UpdatePassword(ctx, s.UserID, validPassword, "Newpass#1"))
	_, err := f.auth.Login(ctx, "alex@example.com", "Newpass#1")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "alex@example.com", validPassword)
	assertKind(t, err, KindAuth, "Invalid credentials")
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "b@example.com", entities.RoleStoreOwner)
	f.signup(t, "a@example.com", "")

	users, err := f.users.List(context.Background(), ListUsersInput{SortBy: "email"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)

	owners, err := f.users.List(context.Background(), ListUsersInput{FilterRole: "Store_Owner"})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "b@example.com", owners[0].Email)

	_, err = f.users.List(context.Background(), ListUsersInput{FilterRole: "king"})
	assertKind(t, err, KindValidation, "Invalid role filter")
}

func TestCreateUserAndGetOwnerDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, err := f.users.Create(ctx, SignupInput{Name: "Benjamin Harrington III", Email: "ben@example.com", Password: validPassword, Role: "store_owner"})
	require.NoError(t, err)
	_, err = f.users.Create(ctx, SignupInput{Name: "Benjamin Harrington III", Email: "ben@example.com", Password: validPassword})
	assertKind(t, err, KindConflict, "Email already exists")

	st := f.store(t, "Harrington Hardware Supply", owner.ID)
	_, err = f.ratings.Submit(ctx, "u1", st.ID, 3)
	require.NoError(t, err)

	detail, err := f.users.Get(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, detail.Stores, 1)
	assert.Equal(t, 1, detail.Stores[0].TotalRatings)
	assert.Equal(t, 3.0, detail.Stores[0].AverageRating)

	_, err = f.users.Get(ctx, "missing")
	assertKind(t, err, KindNotFound, "User not found")
}

func TestCreateStoreValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.stores.Create(ctx, CreateStoreInput{Name: "Too short", Address: "x"})
	assertKind(t, err, KindValidation, "Store name must be 20-60 characters")
	_, err = f.stores.Create(ctx, CreateStoreInput{Name: "Corner Grocery And Deli"})
	assertKind(t, err, KindValidation, "Address is required and must be max 400 characters")
	_, err = f.stores.Create(ctx, CreateStoreInput{Name: "Corner Grocery And Deli", Address: "1 Main", Email: "nope"})
	assertKind(t, err, KindValidation, "Invalid email format")
	_, err = f.stores.Create(ctx, CreateStoreInput{Name: "Corner Grocery And Deli", Address: "1 Main", OwnerID: "ghost"})
	assertKind(t, err, KindValidation, "Owner not found")
}

func TestListStoresAggregatesAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.store(t, "Alpha Grocery And Deli Shop", "")
	high := f.store(t, "Beta Grocery And Deli Shop", "")
	f.store(t, "Gamma Grocery And Deli Shop", "")

	for user, v := range map[string]int{"u1": 3, "u2": 4} {
		_, err := f.ratings.Submit(ctx, user, low.ID, v)
		require.NoError(t, err)
	}
	_, err := f.ratings.Submit(ctx, "u1", high.ID, 5)
	require.NoError(t, err)

	byName, err := f.stores.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, byName, 3)
	assert.Equal(t, low.ID, byName[0].ID)
	assert.Equal(t, 2, byName[0].TotalRatings)
	assert.Equal(t, 3.5, byName[0].AverageRating)
	assert.Equal(t, 0, byName[2].TotalRatings)
	assert.Equal(t, 0.0, byName[2].AverageRating)

	byRating, err := f.stores.List(ctx, "", repositories.SortByRating)
	require.NoError(t, err)
	assert.Equal(t, high.ID, byRating[0].ID)
	assert.Equal(t, low.ID, byRating[1].ID)

	searched, err := f.stores.List(ctx, "beta", "")
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, high.ID, searched[0].ID)
}

type failingRatings struct {
	repositories.RatingRepository
}

func (failingRatings) ValuesByStore(context.Context, string) ([]int, error) {
	return nil, errors.New("connection reset")
}

func TestListStoresFailsWhenAnyFetchFails(t *testing.T) {
	f := newFixture(t)
	f.store(t, "Alpha Grocery And Deli Shop", "")
	uc := NewStoreUseCase(f.mem.Stores(), f.mem.Users(), failingRatings{f.mem.Ratings()})

	_, err := uc.List(context.Background(), "", "")
	assertKind(t, err, KindInternal, "Failed to fetch stores")
}

func TestGetStore(t *testing.T) {
	f := newFixture(t)
	st := f.store(t, "Alpha Grocery And Deli Shop", "")

	got, err := f.stores.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Name, got.Name)

	_, err = f.stores.Get(context.Background(), "missing")
	assertKind(t, err, KindNotFound, "Store not found")
}

func TestSubmitRatingCreatesThenUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.store(t, "Alpha Grocery And Deli Shop", "")

	created, err := f.ratings.Submit(ctx, "u1", st.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.ratings.Submit(ctx, "u1", st.ID, 5)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := f.ratings.GetUserRating(ctx, "u1", st.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)

	count, err := f.mem.Ratings().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, entities.RatingAggregate{Total: 1, Average: 5}, f.pub.events[1])
}

func TestSubmitRatingRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.store(t, "Alpha Grocery And Deli Shop", "")

	for _, v := range []int{0, 6, -1} {
		_, err := f.ratings.Submit(ctx, "u1", st.ID, v)
		assertKind(t, err, KindValidation, "Rating must be between 1 and 5")
	}
	_, err := f.ratings.Submit(ctx, "u1", "", 3)
	assertKind(t, err, KindValidation, "storeId is required")
	_, err = f.ratings.Submit(ctx, "u1", "missing", 3)
	assertKind(t, err, KindNotFound, "Store not found")
	assert.Empty(t, f.pub.events)
}

func TestGetUserRatingMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.ratings.GetUserRating(context.Background(), "u1", "s1")
	assertKind(t, err, KindNotFound, "No rating found")
}

func TestOwnerDashboardAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signup(t, "owner@example.com", entities.RoleStoreOwner)
	rater := f.signup(t, "rater@example.com", "")
	st := f.store(t, "Owner Grocery And Deli Shop", owner.UserID)
	f.store(t, "Someone Elses Grocery Shop", "")

	_, err := f.ratings.Submit(ctx, rater.UserID, st.ID, 4)
	require.NoError(t, err)

	dash, err := f.stores.OwnerDashboard(ctx, owner.UserID)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	assert.Equal(t, st.ID, dash[0].ID)
	require.Len(t, dash[0].Ratings, 1)
	assert.Equal(t, "rater@example.com", dash[0].Ratings[0].Email)

	stats, err := f.users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalUsers: 2, TotalStores: 2, TotalRatings: 1}, *stats)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindNotFound, KindOf(notFoundError("gone")))
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, 400, KindConflict.HTTPStatus())
	assert.Equal(t, 500, KindInternal.HTTPStatus())
}
