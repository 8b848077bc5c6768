package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Route groups client routes that share one bucket per client.
type Route struct {
	// Name keys the bucket and the RATE_LIMIT_<NAME> override.
	Name   string
	Method string
	// Paths are exact, or prefixes when they end in "/".
	Paths  []string
	Limit  int
	Window time.Duration
	Burst  int
}

func (r Route) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	for _, p := range r.Paths {
		if p == path || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// DefaultRoutes returns the limits for the credential, write and search routes.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "login", Method: "POST", Paths: []string{"/auth/login"}, Limit: 10, Window: time.Minute, Burst: 5},
		{Name: "register", Method: "POST", Paths: []string{"/auth/register"}, Limit: 5, Window: time.Minute, Burst: 2},
		{Name: "create", Method: "POST", Paths: []string{"/create/"}, Limit: 30, Window: time.Minute, Burst: 5},
		{Name: "search", Method: "POST", Paths: []string{"/resumes/search", "/vacancies/search"}, Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// DefaultExempt lists paths that are never limited. The event stream
// reconnects on its own and must not be starved by the page's other calls.
func DefaultExempt() []string {
	return []string{"/health", "/events"}
}

// LoadConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_DEFAULT and one
// RATE_LIMIT_<NAME> per route. Limits are written as "count/window",
// e.g. "10/1m".
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Enabled:         true,
		Limit:           1000,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
		Exempt:          DefaultExempt(),
		Routes:          DefaultRoutes(),
	}

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.Enabled = enabled
	}

	var err error
	if cfg.Limit, cfg.Window, err = override("RATE_LIMIT_DEFAULT", cfg.Limit, cfg.Window); err != nil {
		return nil, err
	}
	for i := range cfg.Routes {
		r := &cfg.Routes[i]
		key := "RATE_LIMIT_" + strings.ToUpper(r.Name)
		if r.Limit, r.Window, err = override(key, r.Limit, r.Window); err != nil {
			return nil, err
		}
		if r.Burst > r.Limit {
			r.Burst = r.Limit
		}
	}
	return cfg, nil
}

// override parses key as "count/window" when it is set.
func override(key string, limit int, window time.Duration) (int, time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return limit, window, nil
	}
	count, per, ok := strings.Cut(v, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%s: want count/window, got %q", key, v)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("%s: invalid count %q", key, count)
	}
	d, err := time.ParseDuration(strings.TrimSpace(per))
	if err != nil || d <= 0 {
		return 0, 0, fmt.Errorf("%s: invalid window %q", key, per)
	}
	return n, d, nil
}
