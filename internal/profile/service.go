package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/cache"
	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
	"github.com/ety001/hive-social-api/internal/transform"
)

// ErrAccountNotFound means the node knows no account by that name
var ErrAccountNotFound = errors.New("account not found")

const globalsCacheKey = "hive:global_properties"

// Service fetches and normalizes account profiles. Profiles are
// rebuilt on every call; only the network-wide vesting totals, which
// drift slowly, go through the cache.
type Service struct {
	caller hive.Caller
	tf     *transform.Transformer
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a profile service
func NewService(caller hive.Caller, tf *transform.Transformer, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		caller: caller,
		tf:     tf,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) globalProperties(ctx context.Context) (*hive.RawGlobalProperties, error) {
	var cached hive.RawGlobalProperties
	if s.cache.Get(ctx, globalsCacheKey, &cached) {
		return &cached, nil
	}

	raw, err := s.caller.Call(ctx, hive.MethodGetDynamicGlobal, []any{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch global properties: %w", err)
	}
	props, err := hive.ParseGlobalProperties(raw)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, globalsCacheKey, props)
	return props, nil
}

// Fetch builds the normalized profile view for one account
func (s *Service) Fetch(ctx context.Context, username string) (*models.UserProfile, error) {
	raw, err := s.caller.Call(ctx, hive.MethodGetAccounts, []any{[]string{username}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", username, err)
	}
	accounts, err := hive.ParseAccounts(raw)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}

	props, err := s.globalProperties(ctx)
	if err != nil {
		return nil, err
	}

	// Follow counts are cosmetic; a failure degrades to zeros
	var follows *hive.RawFollowCount
	if rawFC, err := s.caller.Call(ctx, hive.MethodGetFollowCount, []any{username}); err == nil {
		if fc, err := hive.ParseFollowCount(rawFC); err == nil {
			follows = fc
		}
	} else {
		s.logger.Warn("follow count unavailable", zap.String("account", username), zap.Error(err))
	}

	profile := s.tf.Profile(accounts[0], props, follows, s.now())
	return &profile, nil
}
