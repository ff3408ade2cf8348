package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/d60-Lab/gomall/internal/cacheperf"
	"github.com/d60-Lab/gomall/internal/model"
)

type request struct {
	page int
	size int
}

func main() {
	ctx := context.Background()

	// Use PostgreSQL for realistic testing
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable"
	}

	db := must(gorm.Open(postgres.Open(dsn), &gorm.Config{}))

	// Clean up existing test data
	mustDo(db.Exec("DROP TABLE IF EXISTS reviews CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS products CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS categories CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS users CASCADE").Error)

	mustDo(db.AutoMigrate(&model.User{}, &model.Category{}, &model.Product{}, &model.Review{}))

	const (
		reviewerCount = 20000 // 20k shoppers in system
		ttlMinutes    = 10
		dbDelay       = 0 * time.Millisecond // No artificial delay with real DB
	)

	fmt.Println("Setting up test data...")

	category := model.Category{Name: "Electronics", IsActive: true}
	mustDo(db.Create(&category).Error)

	// 3 hot products to simulate different review-page scenarios
	products := []model.Product{
		{Name: "Hot Phone", Price: decimal.NewFromInt(49999), CategoryID: &category.ID, StockQuantity: 1000, SKU: "BENCH-PHONE", IsActive: true},
		{Name: "Hot Laptop", Price: decimal.NewFromInt(89999), CategoryID: &category.ID, StockQuantity: 1000, SKU: "BENCH-LAPTOP", IsActive: true},
		{Name: "Hot Earbuds", Price: decimal.NewFromInt(4999), CategoryID: &category.ID, StockQuantity: 1000, SKU: "BENCH-EARBUDS", IsActive: true},
	}
	mustDo(db.Create(&products).Error)

	reviewers := make([]model.User, reviewerCount)
	for i := 0; i < reviewerCount; i++ {
		reviewers[i] = model.User{
			Username:     fmt.Sprintf("shopper_%d", i),
			Email:        fmt.Sprintf("shopper_%d@example.com", i),
			PasswordHash: "x",
			IsActive:     true,
		}
	}
	mustDo(db.CreateInBatches(&reviewers, 1000).Error)

	// Each product carries 10k reviews; reviewer pools overlap like real
	// shoppers who bought more than one of the hot items.
	base := time.Now()
	reviewRows1 := make([]model.Review, reviewerCount/2)
	reviewRows2 := make([]model.Review, reviewerCount/2)
	reviewRows3 := make([]model.Review, reviewerCount/2)
	for i := 0; i < reviewerCount/2; i++ {
		reviewRows1[i] = model.Review{
			UserID: reviewers[i].ID, ProductID: products[0].ID,
			Rating: 1 + (i % 5), Title: "review", Comment: fmt.Sprintf("phone review %d", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Second),
		}
		reviewRows2[i] = model.Review{
			UserID: reviewers[i+reviewerCount/4].ID, ProductID: products[1].ID,
			Rating: 1 + (i % 5), Title: "review", Comment: fmt.Sprintf("laptop review %d", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Second),
		}
		reviewRows3[i] = model.Review{
			UserID: reviewers[(i+reviewerCount*3/8)%reviewerCount].ID, ProductID: products[2].ID,
			Rating: 1 + (i % 5), Title: "review", Comment: fmt.Sprintf("earbuds review %d", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Second),
		}
	}
	mustDo(db.CreateInBatches(&reviewRows1, 1000).Error)
	mustDo(db.CreateInBatches(&reviewRows2, 1000).Error)
	mustDo(db.CreateInBatches(&reviewRows3, 1000).Error)
	fmt.Println("Test data ready: 3 products with overlapping reviewer pools")

	// Use real Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}

	svc := cacheperf.NewReviewPageService(db, client, ttlMinutes*time.Minute, dbDelay)

	// Generate requests for all 3 products (simulate multiple review-page scenarios)
	reqs1 := makeRequests(3000)
	reqs2 := makeRequests(3000)
	reqs3 := makeRequests(3000)

	allReqs := make([]productRequest, 0, 9000)
	for _, r := range reqs1 {
		allReqs = append(allReqs, productRequest{products[0].ID, r})
	}
	for _, r := range reqs2 {
		allReqs = append(allReqs, productRequest{products[1].ID, r})
	}
	for _, r := range reqs3 {
		allReqs = append(allReqs, productRequest{products[2].ID, r})
	}

	noCache := runScenario(ctx, svc, allReqs, false, func(ctx context.Context, productID uint, r request) ([]cacheperf.ReviewSnapshot, error) {
		return svc.FetchReviewsNoCache(ctx, productID, r.page, r.size)
	}, client)

	naive := runScenario(ctx, svc, allReqs, true, func(ctx context.Context, productID uint, r request) ([]cacheperf.ReviewSnapshot, error) {
		return svc.FetchReviewsNaiveCache(ctx, productID, r.page, r.size)
	}, client)

	optimized := runScenario(ctx, svc, allReqs, true, func(ctx context.Context, productID uint, r request) ([]cacheperf.ReviewSnapshot, error) {
		return svc.FetchReviewsOptimized(ctx, productID, r.page, r.size)
	}, client)

	fmt.Println("\nReview page latency (9k req across 3 products, 20k reviewers, PostgreSQL + Redis)")
	fmt.Printf("%-18s avg=%v p95=%v p99=%v db_page=%d db_index=%d db_review_bulk=%d cache_keys=%d mem=%s\n",
		"No cache", avg(noCache.durations), pct(noCache.durations, 0.95), pct(noCache.durations, 0.99),
		noCache.counters.PageQueries, noCache.counters.IndexLoads, noCache.counters.ReviewBulkLoad,
		noCache.cacheKeys, formatBytes(noCache.memoryBytes),
	)
	fmt.Printf("%-18s avg=%v p95=%v p99=%v db_page=%d db_index=%d db_review_bulk=%d cache_keys=%d mem=%s\n",
		"Naive page cache", avg(naive.durations), pct(naive.durations, 0.95), pct(naive.durations, 0.99),
		naive.counters.PageQueries, naive.counters.IndexLoads, naive.counters.ReviewBulkLoad,
		naive.cacheKeys, formatBytes(naive.memoryBytes),
	)
	fmt.Printf("%-18s avg=%v p95=%v p99=%v db_page=%d db_index=%d db_review_bulk=%d cache_keys=%d mem=%s\n",
		"ID index + MGET", avg(optimized.durations), pct(optimized.durations, 0.95), pct(optimized.durations, 0.99),
		optimized.counters.PageQueries, optimized.counters.IndexLoads, optimized.counters.ReviewBulkLoad,
		optimized.cacheKeys, formatBytes(optimized.memoryBytes),
	)
}

type productRequest struct {
	productID uint
	req       request
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cacheperf.ReviewDBCounters
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, svc *cacheperf.ReviewPageService, reqs []productRequest, warm bool, call func(context.Context, uint, request) ([]cacheperf.ReviewSnapshot, error), client *redis.Client) scenarioResult {
	// Clear Redis
	client.FlushAll(ctx)
	svc.ResetCounters()

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			if _, err := call(ctx, r.productID, r.req); err != nil {
				panic(err)
			}
		}
		fmt.Println(" done")
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		if _, err := call(ctx, r.productID, r.req); err != nil {
			panic(err)
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	// Measure Redis memory usage
	keys, _ := client.Keys(ctx, "*").Result()
	keyCount := len(keys)

	info, err := client.Info(ctx, "memory").Result()
	var memBytes int64
	if err == nil {
		memBytes = parseRedisMemory(info)
	}

	return scenarioResult{
		durations:   out,
		counters:    svc.Counters(),
		cacheKeys:   keyCount,
		memoryBytes: memBytes,
	}
}

// parseRedisMemory extracts used_memory from Redis INFO
func parseRedisMemory(info string) int64 {
	lines := []rune(info)
	var result int64

	for i := 0; i < len(lines); {
		if i+12 < len(lines) && string(lines[i:i+12]) == "used_memory:" {
			i += 12
			var num int64
			for i < len(lines) && lines[i] >= '0' && lines[i] <= '9' {
				num = num*10 + int64(lines[i]-'0')
				i++
			}
			result = num
			break
		}
		i++
	}
	return result
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(n int) []request {
	sizes := []int{20, 40, 60}
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		size := sizes[rnd.Intn(len(sizes))]
		page := 1
		if rnd.Float64() > 0.72 {
			// simulate deep pagination or different views
			page = 2 + rnd.Intn(120)
		}
		out[i] = request{page: page, size: size}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
