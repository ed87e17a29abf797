package serverutils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRateLimitMiddleware builds a sliding-window limiter over redis sorted
// sets, keyed per authenticated user (IP for anonymous routes). A nil client
// disables limiting, which keeps local development redis-free.
func NewRateLimitMiddleware(client *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return ctx.Next()
		}

		caller := ctx.IP()
		if uid, ok := ctx.Locals("user_id").(string); ok && uid != "" {
			caller = uid
		}
		key := fmt.Sprintf("ratelimit:chat:%s", caller)

		now := time.Now()
		windowStart := now.Add(-window)

		pipe := client.TxPipeline()
		pipe.ZRemRangeByScore(ctx.Context(), key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
		countCmd := pipe.ZCard(ctx.Context(), key)
		if _, err := pipe.Exec(ctx.Context()); err != nil {
			// Redis being down should not take the chat API with it.
			return ctx.Next()
		}

		if countCmd.Val() >= int64(limit) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse("Rate limit exceeded, try again later"))
		}

		member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
		pipe = client.TxPipeline()
		pipe.ZAdd(ctx.Context(), key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		pipe.Expire(ctx.Context(), key, window)
		_, _ = pipe.Exec(ctx.Context())

		return ctx.Next()
	}
}
