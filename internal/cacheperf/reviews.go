package cacheperf

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/gomall/internal/model"
)

// ReviewSnapshot contains the fields the product review page actually renders.
type ReviewSnapshot struct {
	ID        uint      `json:"id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewPageService demonstrates different caching strategies for review page reads.
type ReviewPageService struct {
	db      *gorm.DB
	cache   *redis.Client
	ttl     time.Duration
	dbDelay time.Duration

	pageQueries    atomic.Int64
	indexLoads     atomic.Int64
	reviewBulkLoad atomic.Int64
}

// NewReviewPageService builds a demo service using the provided DB + Redis client.
// dbDelay simulates the round-trip cost of hitting the primary store.
func NewReviewPageService(db *gorm.DB, cache *redis.Client, ttl, dbDelay time.Duration) *ReviewPageService {
	return &ReviewPageService{db: db, cache: cache, ttl: ttl, dbDelay: dbDelay}
}

func (s *ReviewPageService) FetchReviewsNoCache(ctx context.Context, productID uint, page, size int) ([]ReviewSnapshot, error) {
	return s.queryReviews(ctx, productID, page, size)
}

func (s *ReviewPageService) FetchReviewsNaiveCache(ctx context.Context, productID uint, page, size int) ([]ReviewSnapshot, error) {
	key := fmt.Sprintf("reviews:%d:%d:%d", productID, page, size)
	if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var out []ReviewSnapshot
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			return out, nil
		}
	}

	rows, err := s.queryReviews(ctx, productID, page, size)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		_ = s.cache.Set(ctx, key, payload, s.ttl).Err()
	}
	return rows, nil
}

func (s *ReviewPageService) FetchReviewsOptimized(ctx context.Context, productID uint, page, size int) ([]ReviewSnapshot, error) {
	key := fmt.Sprintf("reviews:index:%d", productID)

	start := (page - 1) * size
	end := start + size - 1

	// Try to get review IDs directly from a Redis List with a range query
	exists, _ := s.cache.Exists(ctx, key).Result()
	var ids []uint

	if exists > 0 {
		raw, _ := s.cache.LRange(ctx, key, int64(start), int64(end)).Result()
		for _, v := range raw {
			if id, err := strconv.ParseUint(v, 10, 64); err == nil {
				ids = append(ids, uint(id))
			}
		}
	}

	// If cache miss, load all IDs and cache them
	if len(ids) == 0 {
		allIDs, err := s.loadReviewIDsAndCache(ctx, productID)
		if err != nil {
			return nil, err
		}

		if start >= len(allIDs) {
			return []ReviewSnapshot{}, nil
		}
		endIdx := start + size
		if endIdx > len(allIDs) {
			endIdx = len(allIDs)
		}
		ids = allIDs[start:endIdx]
	}

	return s.loadReviews(ctx, ids)
}

func (s *ReviewPageService) loadReviewIDsAndCache(ctx context.Context, productID uint) ([]uint, error) {
	time.Sleep(s.dbDelay)
	s.indexLoads.Add(1)

	var ids []uint
	if err := s.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("id").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Scan(&ids).Error; err != nil {
		return nil, err
	}

	// Store as Redis List
	key := fmt.Sprintf("reviews:index:%d", productID)
	if len(ids) > 0 {
		vals := make([]interface{}, len(ids))
		for i, id := range ids {
			vals[i] = strconv.FormatUint(uint64(id), 10)
		}
		pipe := s.cache.Pipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, vals...)
		pipe.Expire(ctx, key, s.ttl)
		pipe.Exec(ctx)
	}

	return ids, nil
}

func (s *ReviewPageService) queryReviews(ctx context.Context, productID uint, page, size int) ([]ReviewSnapshot, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	time.Sleep(s.dbDelay)

	s.pageQueries.Add(1)

	var rows []ReviewSnapshot
	err := s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id", "reviews.rating", "reviews.title", "reviews.comment", "reviews.created_at", "users.username").
		Joins("JOIN users ON reviews.user_id = users.id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReviewPageService) loadReviews(ctx context.Context, ids []uint) ([]ReviewSnapshot, error) {
	if len(ids) == 0 {
		return []ReviewSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("review:%d", id)
	}

	cached := make(map[uint]ReviewSnapshot, len(ids))
	if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				var snap ReviewSnapshot
				if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
					cached[ids[i]] = snap
				}
			}
		}
	}

	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		s.reviewBulkLoad.Add(1)

		time.Sleep(s.dbDelay)

		var reviews []model.Review
		if err := s.db.WithContext(ctx).
			Preload("User").
			Where("id IN ?", missing).
			Find(&reviews).Error; err != nil {
			return nil, err
		}
		for _, rv := range reviews {
			snap := ReviewSnapshot{
				ID:        rv.ID,
				Rating:    rv.Rating,
				Title:     rv.Title,
				Comment:   rv.Comment,
				CreatedAt: rv.CreatedAt,
			}
			if rv.User != nil {
				snap.Username = rv.User.Username
			}
			cached[rv.ID] = snap
			if payload, err := json.Marshal(snap); err == nil {
				_ = s.cache.Set(ctx, fmt.Sprintf("review:%d", rv.ID), payload, s.ttl).Err()
			}
		}
	}

	result := make([]ReviewSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := cached[id]; ok {
			result = append(result, snap)
		}
	}
	return result, nil
}

// ResetCounters clears recorded db call counters.
func (s *ReviewPageService) ResetCounters() {
	s.pageQueries.Store(0)
	s.indexLoads.Store(0)
	s.reviewBulkLoad.Store(0)
}

// Counters reports how many underlying DB loads were executed.
func (s *ReviewPageService) Counters() ReviewDBCounters {
	return ReviewDBCounters{
		PageQueries:    s.pageQueries.Load(),
		IndexLoads:     s.indexLoads.Load(),
		ReviewBulkLoad: s.reviewBulkLoad.Load(),
	}
}

// ReviewDBCounters summarises DB hits during a run.
type ReviewDBCounters struct {
	PageQueries    int64
	IndexLoads     int64
	ReviewBulkLoad int64
}
