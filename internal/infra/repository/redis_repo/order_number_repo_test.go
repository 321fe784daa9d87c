package redis_repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type OrderNumberRepoTestSuite struct {
	suite.Suite
	mr          *miniredis.Miniredis
	redisClient *redis.Client
	repo        *OrderNumberRepo
	ctx         context.Context
}

func TestOrderNumberRepo(t *testing.T) {
	suite.Run(t, new(OrderNumberRepoTestSuite))
}

func (suite *OrderNumberRepoTestSuite) SetupTest() {
	suite.mr = miniredis.RunT(suite.T())
	suite.redisClient = redis.NewClient(&redis.Options{Addr: suite.mr.Addr()})
	suite.repo = NewOrderNumberRepo(suite.redisClient)
	suite.ctx = context.Background()
}

func (suite *OrderNumberRepoTestSuite) TearDownTest() {
	suite.redisClient.Close()
}

func (suite *OrderNumberRepoTestSuite) TestSequentialPerDay() {
	day1 := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)

	n, err := suite.repo.NextOrderNumber(suite.ctx, day1)
	suite.NoError(err)
	suite.Equal("ORD-20260105-0001", n)

	n, err = suite.repo.NextOrderNumber(suite.ctx, day1)
	suite.NoError(err)
	suite.Equal("ORD-20260105-0002", n)

	// 跨日重新計數
	n, err = suite.repo.NextOrderNumber(suite.ctx, day2)
	suite.NoError(err)
	suite.Equal("ORD-20260106-0001", n)

	suite.True(suite.mr.TTL(suite.repo.GetOrderSeqKey("20260105")) > 0)
}

func (suite *OrderNumberRepoTestSuite) TestConcurrentUnique() {
	const workers = 1000
	now := time.Now()

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := suite.repo.NextOrderNumber(suite.ctx, now)
			suite.NoError(err)
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	suite.Len(seen, workers)
}

func (suite *OrderNumberRepoTestSuite) TestRedisDown() {
	suite.mr.Close()
	_, err := suite.repo.NextOrderNumber(suite.ctx, time.Now())
	suite.Error(err)
}
