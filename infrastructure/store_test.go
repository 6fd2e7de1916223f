package infrastructure

import (
	"context"
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"job-board/domain"
)

type zeroReader struct{}

func (zeroReader) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	return len(b), nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	policy := &domain.TokenPolicy{Now: clock.Now, Random: rand.Reader}
	return NewStore(newTestDB(t), policy, 24, 24), clock
}

func strPtr(s string) *string { return &s }

func sampleJob(communityID uint, title string) domain.NewJob {
	return domain.NewJob{
		CommunityID: communityID,
		Title:       title,
		Company:     "Acme",
		Location:    "Berlin",
		JobType:     "full-time",
		Remote:      true,
		Description: "Build things",
		ContactInfo: strPtr("jobs@acme.io"),
		PosterEmail: "poster@acme.io",
	}
}

func TestStore_CreateCommunity(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	community, token, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^tech-frens-[0-9a-f]{8}$`), community.Slug)
	assert.Equal(t, "Tech Frens", community.Name)
	assert.Equal(t, "a@b.com", community.AdminEmail)
	assert.Len(t, token, 64)
	require.NotNil(t, community.AdminTokenHash)
	assert.Equal(t, domain.HashToken(token), *community.AdminTokenHash)
	assert.NotEqual(t, token, *community.AdminTokenHash)
	require.NotNil(t, community.AdminTokenExpires)
	assert.WithinDuration(t, clock.now.Add(24*time.Hour), *community.AdminTokenExpires, time.Second)
}

func TestStore_CreateCommunity_DuplicateSlug(t *testing.T) {
	store, _ := newTestStore(t)
	store.Tokens.Random = zeroReader{}
	ctx := context.Background()

	_, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)

	_, _, err = store.CreateCommunity(ctx, "Tech Frens", nil, "c@d.com")
	assert.ErrorIs(t, err, domain.ErrDuplicateSlug)
}

func TestStore_GetCommunityBySlug_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	community, err := store.GetCommunityBySlug(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, community)
}

func TestStore_GetCommunityByAdminToken_ExpiredLooksUnknown(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	created, token, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)

	found, err := store.GetCommunityByAdminToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	clock.Advance(24 * time.Hour)

	expired, expiredErr := store.GetCommunityByAdminToken(ctx, token)
	unknown, unknownErr := store.GetCommunityByAdminToken(ctx, "never-issued")
	assert.Nil(t, expired)
	assert.Nil(t, unknown)
	assert.Equal(t, unknownErr, expiredErr)
	assert.NoError(t, expiredErr)
}

func TestStore_UpdateCommunity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, _, err := store.CreateCommunity(ctx, "Tech Frens", strPtr("old"), "a@b.com")
	require.NoError(t, err)

	updated, err := store.UpdateCommunity(ctx, created.ID, domain.CommunityUpdate{
		Name:        domain.Some("Tech Frens Berlin"),
		Description: domain.Some(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tech Frens Berlin", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "", *updated.Description)
	assert.Equal(t, created.Slug, updated.Slug)
	assert.Equal(t, "a@b.com", updated.AdminEmail)
}

func TestStore_UpdateCommunity_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	var statements int
	require.NoError(t, store.DB.Callback().Query().Before("gorm:query").Register("count", func(*gorm.DB) { statements++ }))
	require.NoError(t, store.DB.Callback().Update().Before("gorm:update").Register("count", func(*gorm.DB) { statements++ }))

	_, err := store.UpdateCommunity(context.Background(), 1, domain.CommunityUpdate{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
	assert.Zero(t, statements)
}

func TestStore_UpdateCommunity_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.UpdateCommunity(context.Background(), 42, domain.CommunityUpdate{Name: domain.Some("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GenerateMagicLink_RotatesToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, original, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)

	first, err := store.GenerateMagicLink(ctx, created.ID)
	require.NoError(t, err)
	second, err := store.GenerateMagicLink(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, stale := range []string{original, first} {
		c, err := store.GetCommunityByAdminToken(ctx, stale)
		assert.NoError(t, err)
		assert.Nil(t, c)
	}

	c, err := store.GetCommunityByAdminToken(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, created.ID, c.ID)
}

func TestStore_GenerateMagicLink_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GenerateMagicLink(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreateJob(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	community, adminToken, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)

	job, token, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	assert.Equal(t, community.ID, job.CommunityID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.True(t, job.Remote)
	assert.Len(t, token, 64)
	assert.NotEqual(t, adminToken, token)
	require.NotNil(t, job.TokenExpires)
	assert.WithinDuration(t, clock.now.Add(24*time.Hour), *job.TokenExpires, time.Second)

	found, err := store.GetJobByEditToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, job.ID, found.ID)
}

func TestStore_GetJobByEditToken_ExpiredLooksUnknown(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	_, token, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)

	job, err := store.GetJobByEditToken(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestStore_GetJobsByCommunityID_NewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	other, _, err := store.CreateCommunity(ctx, "Other", nil, "o@b.com")
	require.NoError(t, err)

	for _, title := range []string{"first", "second", "third"} {
		_, _, err := store.CreateJob(ctx, sampleJob(community.ID, title))
		require.NoError(t, err)
	}
	_, _, err = store.CreateJob(ctx, sampleJob(other.ID, "elsewhere"))
	require.NoError(t, err)

	jobs, err := store.GetJobsByCommunityID(ctx, community.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "third", jobs[0].Title)
	assert.Equal(t, "first", jobs[2].Title)
}

func TestStore_UpdateJob_Partial(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	job, _, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	updated, err := store.UpdateJob(ctx, job.ID, domain.JobUpdate{
		Title:       domain.Some("Platform Engineer"),
		ContactInfo: domain.Some(strPtr("")),
		Remote:      domain.Some(false),
	})
	require.NoError(t, err)

	assert.Equal(t, "Platform Engineer", updated.Title)
	require.NotNil(t, updated.ContactInfo)
	assert.Equal(t, "", *updated.ContactInfo)
	assert.False(t, updated.Remote)
	assert.Equal(t, "Acme", updated.Company)
	assert.Equal(t, "Build things", updated.Description)
}

func TestStore_UpdateJob_NothingToUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	job, _, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	same, err := store.UpdateJob(ctx, job.ID, domain.JobUpdate{})
	require.NoError(t, err)
	assert.Equal(t, job.Title, same.Title)

	missing, err := store.UpdateJob(ctx, 999, domain.JobUpdate{})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_DeleteJob_Twice(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	job, _, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	deleted, err := store.DeleteJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteJob(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_RotateEditToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	job, oldToken, err := store.CreateJob(ctx, sampleJob(community.ID, "Backend Engineer"))
	require.NoError(t, err)

	newToken, err := store.RotateEditToken(ctx, job.ID)
	require.NoError(t, err)

	stale, err := store.GetJobByEditToken(ctx, oldToken)
	assert.NoError(t, err)
	assert.Nil(t, stale)

	fresh, err := store.GetJobByEditToken(ctx, newToken)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	_, err = store.RotateEditToken(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteCommunity_RemovesJobs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	other, _, err := store.CreateCommunity(ctx, "Other", nil, "o@b.com")
	require.NoError(t, err)
	_, _, err = store.CreateJob(ctx, sampleJob(community.ID, "one"))
	require.NoError(t, err)
	_, _, err = store.CreateJob(ctx, sampleJob(community.ID, "two"))
	require.NoError(t, err)
	kept, _, err := store.CreateJob(ctx, sampleJob(other.ID, "kept"))
	require.NoError(t, err)

	deleted, err := store.DeleteCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := store.GetCommunityByID(ctx, community.ID)
	assert.NoError(t, err)
	assert.Nil(t, gone)

	jobs, err := store.GetJobsByCommunityID(ctx, community.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	stillThere, err := store.GetJobByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)

	deleted, err = store.DeleteCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_PurgeExpiredTokens(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	expiredCommunity, _, err := store.CreateCommunity(ctx, "Old", nil, "a@b.com")
	require.NoError(t, err)
	_, _, err = store.CreateJob(ctx, sampleJob(expiredCommunity.ID, "old job"))
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	fresh, freshToken, err := store.CreateCommunity(ctx, "Fresh", nil, "c@d.com")
	require.NoError(t, err)

	purged, err := store.PurgeExpiredTokens(ctx, clock.now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	old, err := store.GetCommunityByID(ctx, expiredCommunity.ID)
	require.NoError(t, err)
	assert.Nil(t, old.AdminTokenHash)
	assert.Nil(t, old.AdminTokenExpires)

	stillValid, err := store.GetCommunityByAdminToken(ctx, freshToken)
	require.NoError(t, err)
	require.NotNil(t, stillValid)
	assert.Equal(t, fresh.ID, stillValid.ID)
}

func TestPersistenceErrWrapsSentinel(t *testing.T) {
	err := persistenceErr("op", errors.New("boom"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "boom")
}

func TestStore_DeleteCommunity_RollsBackJobsOnFailure(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	community, _, err := store.CreateCommunity(ctx, "Tech Frens", nil, "a@b.com")
	require.NoError(t, err)
	_, _, err = store.CreateJob(ctx, sampleJob(community.ID, "one"))
	require.NoError(t, err)
	_, _, err = store.CreateJob(ctx, sampleJob(community.ID, "two"))
	require.NoError(t, err)

	err = store.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_community_delete", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "communities" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	deleted, err := store.DeleteCommunity(ctx, community.ID)
	assert.False(t, deleted)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	require.NoError(t, store.DB.Callback().Delete().Remove("test:fail_community_delete"))

	still, err := store.GetCommunityByID(ctx, community.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)

	jobs, err := store.GetJobsByCommunityID(ctx, community.ID)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestStore_CreateCommunity_LongNameSlugFitsColumn(t *testing.T) {
	store, _ := newTestStore(t)

	community, _, err := store.CreateCommunity(context.Background(), strings.Repeat("a", 300), nil, "a@b.com")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(community.Slug), domain.MaxSlugLength)
	assert.Regexp(t, `^a+-[0-9a-f]{8}$`, community.Slug)
}
