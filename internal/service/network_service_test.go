package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followgraph/internal/domain"
	"followgraph/internal/storage"
)

type memoryRepository struct {
	users     []domain.UserRecord
	follows   []domain.FollowRecord
	failWrite error
}

func (r *memoryRepository) Init(context.Context) error { return nil }

func (r *memoryRepository) CreateUser(_ context.Context, name string) (int64, error) {
	if r.failWrite != nil {
		return 0, r.failWrite
	}
	id := int64(len(r.users) + 1)
	r.users = append(r.users, domain.UserRecord{ID: id, Name: name})
	return id, nil
}

func (r *memoryRepository) AddFollow(_ context.Context, follower, followee string) error {
	if r.failWrite != nil {
		return r.failWrite
	}
	r.follows = append(r.follows, domain.FollowRecord{
		ID:       int64(len(r.follows) + 1),
		Follower: follower,
		Followee: followee,
	})
	return nil
}

func (r *memoryRepository) ListUsers(context.Context) ([]domain.UserRecord, error) {
	return r.users, nil
}

func (r *memoryRepository) ListFollows(context.Context) ([]domain.FollowRecord, error) {
	return r.follows, nil
}

type recordingStorage struct {
	uploads    []storage.UploadOptions
	bodies     []string
	listBucket string
	listPrefix string
}

func (s *recordingStorage) UploadSnapshot(_ context.Context, body []byte, opts storage.UploadOptions) (string, error) {
	s.uploads = append(s.uploads, opts)
	s.bodies = append(s.bodies, string(body))
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (s *recordingStorage) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	s.listBucket = bucket
	s.listPrefix = prefix
	return []storage.ObjectInfo{{Key: prefix + "snapshot-1.txt", Size: 10}}, nil
}

func newTestService(t *testing.T, cfg Config) NetworkService {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg.Logger = logger
	return NewNetworkService(cfg)
}

func TestNetworkServiceScenario(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepository{}
	svc := newTestService(t, Config{Capacity: 3, Repository: repo})

	for _, name := range []string{"Foo", "Bar", " Baz "} {
		_, err := svc.AddUser(ctx, name)
		require.NoError(t, err)
	}

	_, err := svc.Follow(ctx, "Foo", "Bar")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, "foo", "baz")
	require.NoError(t, err)
	view, err := svc.Follow(ctx, "Bar", "Baz")
	require.NoError(t, err)
	assert.Equal(t, &UserView{Name: "Bar", Follows: []string{"Baz"}, Followers: 1}, view)

	rec, err := svc.Recommend(ctx, "Bar")
	require.NoError(t, err)
	assert.Equal(t, "Foo", rec)

	popular, err := svc.MostPopular(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Baz", popular)

	assert.Equal(t, Stats{Capacity: 3, UserCount: 3}, svc.Stats(ctx))
	assert.Equal(t, "Network:\nFoo -> Bar, Baz\nBar -> Baz\nBaz -> (none)", svc.Describe(ctx))

	require.Len(t, repo.users, 3)
	assert.Equal(t, "Baz", repo.users[2].Name)
	assert.Equal(t, []domain.FollowRecord{
		{ID: 1, Follower: "Foo", Followee: "Bar"},
		{ID: 2, Follower: "Foo", Followee: "Baz"},
		{ID: 3, Follower: "Bar", Followee: "Baz"},
	}, repo.follows)
}

func TestNetworkServiceRejections(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepository{}
	svc := newTestService(t, Config{Capacity: 2, Repository: repo})

	_, err := svc.AddUser(ctx, "Foo")
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, "FOO")
	assert.ErrorIs(t, err, ErrUserRejected)
	_, err = svc.AddUser(ctx, "   ")
	assert.ErrorIs(t, err, ErrUserRejected)
	_, err = svc.AddUser(ctx, "Bar")
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, "Baz")
	assert.ErrorIs(t, err, ErrUserRejected)

	_, err = svc.Follow(ctx, "Foo", "Qux")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.Follow(ctx, "Qux", "Foo")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.Follow(ctx, "Foo", "foo")
	assert.ErrorIs(t, err, ErrFollowRejected)

	_, err = svc.Follow(ctx, "Foo", "Bar")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, "Foo", "Bar")
	assert.ErrorIs(t, err, ErrFollowRejected)

	_, err = svc.GetUser(ctx, "Qux")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.Recommend(ctx, "Qux")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.Len(t, repo.users, 2)
	assert.Len(t, repo.follows, 1)
}

func TestNetworkServiceEmptyQueries(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{Capacity: 2})

	_, err := svc.MostPopular(ctx)
	assert.ErrorIs(t, err, ErrNetworkEmpty)

	_, err = svc.AddUser(ctx, "Solo")
	require.NoError(t, err)
	_, err = svc.Recommend(ctx, "solo")
	assert.ErrorIs(t, err, domain.ErrNoRecommendation)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []UserView{{Name: "Solo", Follows: []string{}}}, users)
}

func TestNetworkServicePersistFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	repo := &memoryRepository{failWrite: boom}
	svc := newTestService(t, Config{Capacity: 2, Repository: repo})

	_, err := svc.AddUser(ctx, "Foo")
	assert.ErrorIs(t, err, boom)
	_, err = svc.GetUser(ctx, "Foo")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, Stats{Capacity: 2, UserCount: 0}, svc.Stats(ctx))

	repo.failWrite = nil
	_, err = svc.AddUser(ctx, "Foo")
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, "Bar")
	require.NoError(t, err)
	require.Len(t, repo.users, 2)

	repo.failWrite = boom
	_, err = svc.Follow(ctx, "Foo", "Bar")
	assert.ErrorIs(t, err, boom)
	foo, err := svc.GetUser(ctx, "Foo")
	require.NoError(t, err)
	assert.Empty(t, foo.Follows)

	repo.failWrite = nil
	foo, err = svc.Follow(ctx, "Foo", "Bar")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bar"}, foo.Follows)
	assert.Equal(t, []domain.FollowRecord{{ID: 1, Follower: "Foo", Followee: "Bar"}}, repo.follows)
}

func TestNetworkServiceDuplicateFollowNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepository{}
	svc := newTestService(t, Config{Capacity: 2, Repository: repo})

	_, err := svc.AddUser(ctx, "Foo")
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, "Bar")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, "Foo", "Bar")
	require.NoError(t, err)

	_, err = svc.Follow(ctx, "FOO", "bar")
	assert.ErrorIs(t, err, ErrFollowRejected)
	assert.Len(t, repo.follows, 1)
}

func TestNetworkServiceLoad(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepository{
		users: []domain.UserRecord{
			{ID: 1, Name: "Foo"},
			{ID: 2, Name: "Bar"},
			{ID: 3, Name: "Baz"},
			{ID: 4, Name: "Overflow"},
		},
		follows: []domain.FollowRecord{
			{ID: 1, Follower: "Foo", Followee: "Bar"},
			{ID: 2, Follower: "Foo", Followee: "Baz"},
			{ID: 3, Follower: "Bar", Followee: "Baz"},
			{ID: 4, Follower: "Foo", Followee: "Overflow"},
		},
	}
	svc := newTestService(t, Config{Capacity: 3, Repository: repo})
	require.NoError(t, svc.Load(ctx))

	assert.Equal(t, 3, svc.Stats(ctx).UserCount)
	foo, err := svc.GetUser(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bar", "Baz"}, foo.Follows)

	popular, err := svc.MostPopular(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Baz", popular)
}

func TestNetworkServiceLoadWithoutRepository(t *testing.T) {
	svc := newTestService(t, Config{Capacity: 3})
	assert.NoError(t, svc.Load(context.Background()))
}

func TestNetworkServiceExportSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &recordingStorage{}
	svc := newTestService(t, Config{
		Capacity:  3,
		Storage:   store,
		Bucket:    "graphs",
		KeyPrefix: "/snapshots/",
	})
	_, err := svc.AddUser(ctx, "Foo")
	require.NoError(t, err)

	location, err := svc.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, "s3://graphs/snapshots/snapshot-"))
	assert.True(t, strings.HasSuffix(location, ".txt"))

	require.Len(t, store.uploads, 1)
	assert.Equal(t, "graphs", store.uploads[0].Bucket)
	assert.Equal(t, "Network:\nFoo -> (none)", store.bodies[0])

	objects, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
	assert.Equal(t, "graphs", store.listBucket)
	assert.Equal(t, "snapshots/", store.listPrefix)
}

func TestNetworkServiceExportDisabled(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{Capacity: 3})

	_, err := svc.ExportSnapshot(ctx)
	assert.ErrorIs(t, err, ErrExportDisabled)
	_, err = svc.ListSnapshots(ctx)
	assert.ErrorIs(t, err, ErrExportDisabled)
}
