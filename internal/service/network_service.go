package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"followgraph/internal/domain"
	"followgraph/internal/repository"
	"followgraph/internal/storage"
)

var (
	// ErrUserRejected is returned when a user cannot be added: the network is
	// full, the name is empty, or it is already taken.
	ErrUserRejected = errors.New("user rejected")
	// ErrFollowRejected is returned when a follow edge cannot be created.
	ErrFollowRejected = errors.New("follow rejected")
	// ErrNetworkEmpty is returned by MostPopular when no users exist.
	ErrNetworkEmpty = errors.New("network has no users")
	// ErrExportDisabled is returned when no snapshot storage is configured.
	ErrExportDisabled = errors.New("snapshot export is not configured")
)

// UserView is a read-only copy of a user's state.
type UserView struct {
	Name      string
	Follows   []string
	Followers int
}

// Stats summarises the network.
type Stats struct {
	Capacity  int
	UserCount int
}

// NetworkService exposes the follow graph to concurrent callers and keeps
// an optional repository in step with it.
type NetworkService interface {
	Load(ctx context.Context) error
	AddUser(ctx context.Context, name string) (*UserView, error)
	Follow(ctx context.Context, follower, followee string) (*UserView, error)
	GetUser(ctx context.Context, name string) (*UserView, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	Recommend(ctx context.Context, name string) (string, error)
	MostPopular(ctx context.Context) (string, error)
	Describe(ctx context.Context) string
	Stats(ctx context.Context) Stats
	ExportSnapshot(ctx context.Context) (string, error)
	ListSnapshots(ctx context.Context) ([]storage.ObjectInfo, error)
}

type Config struct {
	Capacity int
	// Repository may be nil, in which case the network lives only in memory.
	Repository repository.NetworkRepository
	// Storage may be nil, which disables snapshot export.
	Storage   storage.Service
	Bucket    string
	KeyPrefix string
	Logger    *logrus.Logger
}

type networkService struct {
	mu      sync.RWMutex
	network *domain.Network
	repo    repository.NetworkRepository
	storage storage.Service
	bucket  string
	prefix  string
	logger  *logrus.Logger
}

func NewNetworkService(cfg Config) NetworkService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &networkService{
		network: domain.NewNetwork(cfg.Capacity),
		repo:    cfg.Repository,
		storage: cfg.Storage,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		logger:  cfg.Logger,
	}
}

func (s *networkService) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	follows, err := s.repo.ListFollows(ctx)
	if err != nil {
		return fmt.Errorf("load follows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	skipped := 0
	for _, u := range users {
		if !s.network.AddUser(u.Name) {
			skipped++
			s.logger.WithField("user", u.Name).Warn("stored user does not fit in network, skipping")
		}
	}
	for _, f := range follows {
		if !s.network.AddFollowee(f.Follower, f.Followee) {
			skipped++
			s.logger.WithFields(logrus.Fields{
				"follower": f.Follower,
				"followee": f.Followee,
			}).Warn("stored follow could not be replayed, skipping")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"users":   s.network.UserCount(),
		"follows": len(follows),
		"skipped": skipped,
	}).Info("network loaded")
	return nil
}

func (s *networkService) AddUser(ctx context.Context, name string) (*UserView, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preconditions are checked before the write so a failed write leaves
	// the network untouched.
	_, exists := s.network.GetUser(name)
	if name == "" || exists || s.network.UserCount() >= s.network.Capacity() {
		return nil, fmt.Errorf("%w: %q", ErrUserRejected, name)
	}
	if s.repo != nil {
		if _, err := s.repo.CreateUser(ctx, name); err != nil {
			s.logger.WithError(err).WithField("user", name).Error("persist user")
			return nil, fmt.Errorf("persist user: %w", err)
		}
	}
	if !s.network.AddUser(name) {
		return nil, fmt.Errorf("%w: %q", ErrUserRejected, name)
	}

	s.logger.WithField("user", name).Info("user added")
	u, _ := s.network.GetUser(name)
	return s.view(u), nil
}

func (s *networkService) Follow(ctx context.Context, follower, followee string) (*UserView, error) {
	follower = strings.TrimSpace(follower)
	followee = strings.TrimSpace(followee)

	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.network.GetUser(follower)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, follower)
	}
	to, ok := s.network.GetUser(followee)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, followee)
	}
	if from == to || from.Follows(to.Name()) || from.FollowCount() >= from.Capacity() {
		return nil, fmt.Errorf("%w: %q -> %q", ErrFollowRejected, from.Name(), to.Name())
	}
	if s.repo != nil {
		if err := s.repo.AddFollow(ctx, from.Name(), to.Name()); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"follower": from.Name(),
				"followee": to.Name(),
			}).Error("persist follow")
			return nil, fmt.Errorf("persist follow: %w", err)
		}
	}
	if !s.network.AddFollowee(from.Name(), to.Name()) {
		return nil, fmt.Errorf("%w: %q -> %q", ErrFollowRejected, from.Name(), to.Name())
	}

	s.logger.WithFields(logrus.Fields{
		"follower": from.Name(),
		"followee": to.Name(),
	}).Info("follow added")
	return s.view(from), nil
}

func (s *networkService) GetUser(_ context.Context, name string) (*UserView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.network.GetUser(strings.TrimSpace(name))
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, name)
	}
	return s.view(u), nil
}

func (s *networkService) ListUsers(_ context.Context) ([]UserView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.network.Users()
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = *s.view(u)
	}
	return views, nil
}

func (s *networkService) Recommend(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.network.RecommendWhoToFollow(strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("recommend for %q: %w", name, err)
	}
	return rec, nil
}

func (s *networkService) MostPopular(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.network.MostPopularUser()
	if !ok {
		return "", ErrNetworkEmpty
	}
	return name, nil
}

func (s *networkService) Describe(_ context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network.String()
}

func (s *networkService) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Capacity:  s.network.Capacity(),
		UserCount: s.network.UserCount(),
	}
}

func (s *networkService) ExportSnapshot(ctx context.Context) (string, error) {
	if s.storage == nil || s.bucket == "" {
		return "", ErrExportDisabled
	}

	body := []byte(s.Describe(ctx))
	location, err := s.storage.UploadSnapshot(ctx, body, storage.UploadOptions{
		Bucket:      s.bucket,
		Key:         path.Join(s.prefix, fmt.Sprintf("snapshot-%s.txt", uuid.NewString())),
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("export snapshot: %w", err)
	}
	s.logger.WithField("location", location).Info("snapshot exported")
	return location, nil
}

func (s *networkService) ListSnapshots(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.storage == nil || s.bucket == "" {
		return nil, ErrExportDisabled
	}
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	return s.storage.ListObjects(ctx, s.bucket, prefix)
}

// view must be called with s.mu held.
func (s *networkService) view(u *domain.User) *UserView {
	return &UserView{
		Name:      u.Name(),
		Follows:   u.Followees(),
		Followers: s.network.FollowerCount(u.Name()),
	}
}
