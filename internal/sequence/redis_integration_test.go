//go:build integration

package sequence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ebirth/internal/sequence"
	"ebirth/pkg/testutil/containers"
)

type RedisAllocatorSuite struct {
	suite.Suite
	redis     *containers.RedisContainer
	allocator *sequence.RedisAllocator
}

func TestRedisAllocatorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisAllocatorSuite))
}

func (s *RedisAllocatorSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.allocator = sequence.NewRedis(s.redis.Client)
}

func (s *RedisAllocatorSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisAllocatorSuite) TestConcurrentAllocationsUnique() {
	ctx := context.Background()
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.allocator.Next(ctx, 2, "027", day)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			seen[n] = true
		}()
	}
	wg.Wait()

	s.Len(seen, goroutines, "INCR must never hand out duplicates")
}
