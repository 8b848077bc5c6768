// Package revalidate periodically rechecks the tokens of live sessions so that
// tokens revoked or expired on the API side end the session everywhere.
package revalidate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/session"
)

// DefaultSpec is the default cron schedule.
const DefaultSpec = "@every 5m"

// sessionTimeout bounds one session's revalidation.
const sessionTimeout = 15 * time.Second

// Sessions is the set of live sessions to walk.
type Sessions interface {
	Range(fn func(profile string, s *session.Session) bool)
}

// Evicter is implemented by session sets that can drop idle sessions.
type Evicter interface {
	Evict(idle time.Duration) []string
}

// Result summarizes one pass.
type Result struct {
	Checked   int
	LoggedOut int
	Evicted   int
	Duration  time.Duration
}

// Scheduler wraps robfig/cron and runs the revalidation pass.
type Scheduler struct {
	cron     *cron.Cron
	sessions Sessions
	spec     string
	idleTTL  time.Duration
	logger   logrus.FieldLogger
}

// New creates a Scheduler firing on spec (standard cron syntax or a descriptor
// such as "@every 5m").
func New(sessions Sessions, spec string, logger logrus.FieldLogger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		spec:     spec,
		logger:   logger.WithField("component", "revalidate"),
	}
}

// SetIdleTTL makes each pass first evict sessions idle for longer than ttl,
// when the session set supports it. Zero disables eviction.
func (s *Scheduler) SetIdleTTL(ttl time.Duration) {
	s.idleTTL = ttl
}

// Start registers the job and starts the scheduler. Passes run on the cron
// goroutine until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("spec", s.spec).Info("revalidation scheduled")
	return nil
}

// Stop shuts the scheduler down and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("revalidation stopped")
}

// Run evicts idle sessions, then revalidates every signed-in session once. A
// session whose token is rejected, or cannot be checked, is logged out.
func (s *Scheduler) Run(ctx context.Context) Result {
	start := time.Now()
	var res Result

	if e, ok := s.sessions.(Evicter); ok && s.idleTTL > 0 {
		res.Evicted = len(e.Evict(s.idleTTL))
	}

	s.sessions.Range(func(profile string, sess *session.Session) bool {
		if ctx.Err() != nil {
			return false
		}
		if !sess.Authenticated() {
			return true
		}
		res.Checked++

		checkCtx, cancel := context.WithTimeout(ctx, sessionTimeout)
		ok := sess.Revalidate(checkCtx)
		cancel()
		if !ok {
			res.LoggedOut++
			s.logger.WithField("profile", profile).Info("session expired on revalidation")
		}
		return true
	})

	res.Duration = time.Since(start)
	s.logger.WithFields(logrus.Fields{
		"checked":    res.Checked,
		"logged_out": res.LoggedOut,
		"evicted":    res.Evicted,
		"duration":   res.Duration,
	}).Debug("revalidation pass complete")
	return res
}
