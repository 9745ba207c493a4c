package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/mythos-labs/mythos-api/internal/quota"
	"github.com/mythos-labs/mythos-api/internal/repository"
	"github.com/mythos-labs/mythos-api/internal/storage"
	"go.uber.org/zap"
)

// KeyPrefix is the public tag on every credential this service issues. It
// distinguishes our keys from arbitrary bearer tokens; it is not a secret.
const KeyPrefix = "myt_"

const usageWriteTimeout = 5 * time.Second

type APIKeyService struct {
	repository *repository.APIKeyRepository
	redis      *storage.RedisClient
	logger     *zap.Logger
}

func NewAPIKeyService(repo *repository.APIKeyRepository, redis *storage.RedisClient, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repository: repo,
		redis:      redis,
		logger:     logger,
	}
}

// Fingerprint computes the one-way digest under which a credential is stored
// and looked up. The raw credential is never persisted or logged.
func Fingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

func (s *APIKeyService) Create(ctx context.Context, name, ownerID, tierName string) (string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}

	key := KeyPrefix + base64.URLEncoding.EncodeToString(keyBytes)

	now := time.Now().UTC()
	resetAt := quota.NextReset(now)

	apiKey := models.APIKey{
		KeyHash:        Fingerprint(key),
		Name:           name,
		OwnerID:        ownerID,
		Tier:           tierName,
		IsActive:       true,
		MonthlyResetAt: &resetAt,
	}

	if err := s.repository.Create(ctx, &apiKey); err != nil {
		return "", fmt.Errorf("failed to create API key: %w", err)
	}

	// Return plain key (only time it's visible)
	return key, nil
}

// Resolve maps an extracted credential to its account record. Returns
// (nil, nil) when no active record matches; a store error is returned as-is
// so the caller can fail closed.
func (s *APIKeyService) Resolve(ctx context.Context, key string) (*models.APIKey, error) {
	keyHash := Fingerprint(key)

	// Check cache first
	cacheKey := fmt.Sprintf("apikey:cache:%s", keyHash)
	cached, err := s.redis.Get(ctx, cacheKey)

	if err == nil && cached != "" {
		var apiKey models.APIKey
		if err := json.Unmarshal([]byte(cached), &apiKey); err == nil {
			return &apiKey, nil
		}
	}

	// Cache miss - query database
	apiKey, err := s.repository.FindByHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}

	if apiKey == nil {
		return nil, nil
	}

	// Cache the result. Usage writes invalidate this entry, so a cached
	// record only outlives its TTL on paths that never write (denials).
	apiKeyJSON, _ := json.Marshal(apiKey)
	s.redis.Set(ctx, cacheKey, apiKeyJSON, 5*time.Minute)

	return apiKey, nil
}

// RecordUsage persists one admitted call: an atomic increment, or an
// absolute reset write when the evaluation saw the boundary crossed. Runs
// detached from the request with its own deadline; a failed write costs
// ledger accuracy, never a request.
func (s *APIKeyService) RecordUsage(rec *models.APIKey, ev quota.Evaluation) {
	id := rec.ID
	keyHash := rec.KeyHash

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageWriteTimeout)
		defer cancel()

		now := time.Now().UTC()

		var err error
		if ev.ResetDue {
			err = s.repository.ResetUsage(ctx, id, ev.NextReset, now)
		} else {
			err = s.repository.IncrementUsage(ctx, id, now)
		}

		if err != nil {
			s.logger.Warn("usage write failed",
				zap.String("key_id", id.String()),
				zap.Error(err),
			)
		}

		// Drop the cached record so the next resolution sees the new
		// count. Best effort, same as the write itself.
		s.redis.Del(ctx, fmt.Sprintf("apikey:cache:%s", keyHash))
	}()
}

func (s *APIKeyService) Get(ctx context.Context, id string) (*models.APIKey, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *APIKeyService) List(ctx context.Context) ([]models.APIKey, error) {
	return s.repository.List(ctx)
}

// CountByTier reports how many active keys sit on a tier, for the admin
// status endpoint.
func (s *APIKeyService) CountByTier(ctx context.Context, tierName string) (int64, error) {
	return s.repository.CountByTier(ctx, tierName)
}

func (s *APIKeyService) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	// Invalidate cache if tier or is_active is updated
	if _, hasTier := updates["tier"]; hasTier {
		s.invalidateCache(ctx, id)
	}
	if _, hasActive := updates["is_active"]; hasActive {
		s.invalidateCache(ctx, id)
	}

	return s.repository.Update(ctx, id, updates)
}

func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	s.invalidateCache(ctx, id)

	return s.repository.Delete(ctx, id)
}

func (s *APIKeyService) invalidateCache(ctx context.Context, id string) {
	apiKey, err := s.repository.FindByID(ctx, id)
	if err != nil || apiKey == nil {
		return
	}

	s.redis.Del(ctx, fmt.Sprintf("apikey:cache:%s", apiKey.KeyHash))
}
