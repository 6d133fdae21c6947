package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"qscope/internal/constants"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

type entry struct {
	checker  Checker
	optional bool
}

// CheckerRegistry runs every registered checker concurrently. Optional
// checkers only degrade the overall status when they fail.
type CheckerRegistry struct {
	entries []entry
	now     func() time.Time
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{now: time.Now}
}

func (r *CheckerRegistry) Register(c Checker) {
	r.entries = append(r.entries, entry{checker: c})
}

func (r *CheckerRegistry) RegisterOptional(c Checker) {
	r.entries = append(r.entries, entry{checker: c, optional: true})
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make([]CheckResult, len(r.entries))

	var wg sync.WaitGroup
	for i, e := range r.entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := r.now()
			err := e.checker.Check(ctx)
			res := CheckResult{Status: StatusHealthy, Duration: r.now().Sub(start).String()}
			if err != nil {
				res.Message = err.Error()
				res.Status = StatusUnhealthy
				if e.optional {
					res.Status = StatusDegraded
				}
			}
			results[i] = res
		}()
	}
	wg.Wait()

	h := Health{Status: StatusHealthy, Timestamp: r.now(), Checks: make(map[string]CheckResult, len(results))}
	for i, res := range results {
		h.Checks[r.entries[i].checker.Name()] = res
		switch {
		case res.Status == StatusUnhealthy:
			h.Status = StatusUnhealthy
		case res.Status == StatusDegraded && h.Status == StatusHealthy:
			h.Status = StatusDegraded
		}
	}
	return h
}

// Handler serves the registry as JSON. Unhealthy maps to 503.
func Handler(r *CheckerRegistry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h := r.Check(req.Context())
		code := http.StatusOK
		if h.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(h)
	})
}

// CheckFunc adapts a probe function into a named Checker bounded by
// constants.HealthCheckTimeout.
type CheckFunc struct {
	name  string
	probe func(ctx context.Context) error
}

func (c CheckFunc) Name() string { return c.name }

func (c CheckFunc) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.HealthCheckTimeout)
	defer cancel()

	if err := c.probe(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", c.name, err)
	}
	return nil
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker wraps anything that can ping, such as the queue transport.
func PingChecker(name string, p Pinger) CheckFunc {
	return CheckFunc{name: name, probe: p.Ping}
}

func RedisChecker(client redis.UniversalClient) CheckFunc {
	return CheckFunc{name: "redis", probe: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func MongoDBChecker(client *mongo.Client) CheckFunc {
	return CheckFunc{name: "mongodb", probe: func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}}
}
