package ratelimit

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"Sahaya/pkg/errors"
	"Sahaya/pkg/logger"
)

// Limiter enforces per-(subject, operation) rates on alert operations. The
// store decides the scope: a redis store makes the counter shared across
// processes; the memory store is a single-process fallback for development
// and tests.
type Limiter struct {
	mu       sync.Mutex
	store    limiter.Store
	rates    map[string]string // operation -> rate, e.g. "create" -> "5-M"
	limiters map[string]*limiter.Limiter
}

// NewRedisStore builds a limiter store on an existing redis client.
func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "sahaya:ratelimit",
	})
}

func New(store limiter.Store, rates map[string]string) *Limiter {
	if store == nil {
		store = memory.NewStore()
	}
	return &Limiter{
		store:    store,
		rates:    rates,
		limiters: make(map[string]*limiter.Limiter),
	}
}

// Allow consumes one token for the subject and operation. It fails open on
// store errors: a degraded limiter must never block an SOS.
func (l *Limiter) Allow(ctx context.Context, subjectID, operation string) error {
	lim := l.limiterFor(operation)
	if lim == nil {
		return nil // no rate configured for this operation
	}
	key := subjectID + ":" + operation
	res, err := lim.Get(ctx, key)
	if err != nil {
		logger.Warn("rate limiter store error, allowing",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil
	}
	if res.Reached {
		return errors.WithCodef(errors.CodeRateLimited,
			"rate limit exceeded for %s", operation)
	}
	return nil
}

func (l *Limiter) limiterFor(operation string) *limiter.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[operation]; ok {
		return lim
	}
	rateStr, ok := l.rates[operation]
	if !ok || rateStr == "" {
		return nil
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		logger.Warn("invalid rate format, operation left unlimited",
			zap.String("operation", operation),
			zap.String("rate", rateStr),
		)
		return nil
	}
	lim := limiter.New(l.store, rate)
	l.limiters[operation] = lim
	return lim
}
