// Package ratelimit provides rate limiting for requests against the
// dataset host.
//
// The mirror fetches every missing batch in one burst on its first sync,
// which against an anonymous hosting API quota can mean dozens of requests
// back to back. The token bucket keeps that burst under the host's limits.
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
package ratelimit
