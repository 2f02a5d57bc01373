package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/childcare-site/internal/config"
	"github.com/wolfman30/childcare-site/internal/documents"
	"github.com/wolfman30/childcare-site/internal/ratelimit"
	"github.com/wolfman30/childcare-site/internal/referrals"
	"github.com/wolfman30/childcare-site/internal/submissions"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

// Stores is the persistence used by the form pipeline and admin routes.
type Stores struct {
	Submissions submissions.Store
	Reader      submissions.Reader
	Referrals   referrals.Repository
	Backend     string
}

// BuildStores uses Postgres when a pool is available and memory otherwise.
func BuildStores(pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger) Stores {
	capacity := submissions.Capacity(cfg.ProgramCapacity)
	if pool == nil {
		if logger != nil {
			logger.Warn("DATABASE_URL not set or unreachable, using in-memory stores")
		}
		mem := submissions.NewInMemoryStore(capacity)
		return Stores{
			Submissions: mem,
			Reader:      mem,
			Referrals:   referrals.NewInMemoryRepository(),
			Backend:     "memory",
		}
	}
	pg := submissions.NewPostgresStore(pool, capacity)
	return Stores{
		Submissions: pg,
		Reader:      pg,
		Referrals:   referrals.NewPostgresRepository(pool),
		Backend:     "postgres",
	}
}

// BuildLimiters returns the form limiter and the API throttle limiter. Both
// share Redis when it is available.
func BuildLimiters(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) (form, api ratelimit.Limiter) {
	formCfg := ratelimit.Config{
		MaxAttempts:   cfg.RateLimitMaxAttempts,
		Window:        cfg.RateLimitWindow,
		BlockDuration: cfg.RateLimitBlock,
	}
	apiCfg := ratelimit.Config{
		MaxAttempts:   cfg.APIRateLimitMax,
		Window:        cfg.APIRateLimitWindow,
		BlockDuration: cfg.APIRateLimitBlock,
	}
	if redisClient == nil {
		return ratelimit.NewMemoryLimiter(formCfg, logger), ratelimit.NewMemoryLimiter(apiCfg, logger)
	}
	return ratelimit.NewRedisLimiter(redisClient, formCfg, logger, ratelimit.WithKeyPrefix("ratelimit:forms")),
		ratelimit.NewRedisLimiter(redisClient, apiCfg, logger, ratelimit.WithKeyPrefix("ratelimit:api"))
}

// BuildDocumentStorage uses S3 when a bucket is configured.
func BuildDocumentStorage(cfg *appconfig.Config, awsCfg *aws.Config) documents.Storage {
	if cfg.DocumentsBucket == "" || awsCfg == nil {
		return documents.NewMemoryStorage()
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		if cfg.AWSEndpointOverride != "" {
			o.UsePathStyle = true
		}
	})
	return documents.NewS3Storage(client, cfg.DocumentsBucket)
}
