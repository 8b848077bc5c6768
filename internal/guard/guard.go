// Package guard decides whether a navigation may proceed: public paths always
// pass, everything else needs a token the API still accepts.
package guard

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var errNoValidator = errors.New("no token validator configured")

// ValidationTimeout bounds one shared token validation.
const ValidationTimeout = 10 * time.Second

// UnauthorizedPath is where rejected navigations are sent.
const UnauthorizedPath = "/auth/unauthorized"

// DefaultPublicPaths are matched exactly.
var DefaultPublicPaths = []string{
	"/",
	"/auth/login",
	"/auth/register",
	UnauthorizedPath,
	"/favicon.ico",
	"/health",
}

// DefaultPublicPrefixes are static asset trees.
var DefaultPublicPrefixes = []string{
	"/_next/",
	"/static/",
	"/assets/",
}

// Reason explains a Decision.
type Reason string

const (
	ReasonPublic          Reason = "public"
	ReasonValid           Reason = "valid_token"
	ReasonNoToken         Reason = "no_token"
	ReasonInvalid         Reason = "invalid_token"
	ReasonValidationError Reason = "validation_error"
)

// Decision is the outcome of a Check.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

// Validator asks the API whether a token is still valid.
type Validator interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
}

// Options configures a Guard. Empty path lists fall back to the defaults.
type Options struct {
	Validator      Validator
	PublicPaths    []string
	PublicPrefixes []string
	Logger         logrus.FieldLogger
}

// Guard checks navigations against the public path table and the API.
type Guard struct {
	validator Validator
	exact     map[string]struct{}
	prefixes  []string
	logger    logrus.FieldLogger
	group     singleflight.Group
}

// New creates a Guard.
func New(opts Options) *Guard {
	paths := opts.PublicPaths
	if len(paths) == 0 {
		paths = DefaultPublicPaths
	}
	prefixes := opts.PublicPrefixes
	if len(prefixes) == 0 {
		prefixes = DefaultPublicPrefixes
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	exact := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		exact[p] = struct{}{}
	}
	return &Guard{
		validator: opts.Validator,
		exact:     exact,
		prefixes:  prefixes,
		logger:    logger.WithField("component", "guard"),
	}
}

// IsPublic reports whether path needs no session.
func (g *Guard) IsPublic(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Check decides whether a navigation to path holding token may proceed. Any
// validation failure, network errors included, redirects.
func (g *Guard) Check(ctx context.Context, path, token string) Decision {
	if g.IsPublic(path) {
		return Decision{Allow: true, Reason: ReasonPublic}
	}
	if token == "" {
		return deny(ReasonNoToken)
	}

	valid, err := g.verify(ctx, token)
	if err != nil {
		g.logger.WithError(err).WithField("path", path).Warn("token validation failed")
		return deny(ReasonValidationError)
	}
	if !valid {
		return deny(ReasonInvalid)
	}
	return Decision{Allow: true, Reason: ReasonValid}
}

// verify shares one in-flight validation among concurrent checks of the same
// token. The shared call is detached from any one caller's context; each caller
// stops waiting when its own ctx ends.
func (g *Guard) verify(ctx context.Context, token string) (bool, error) {
	if g.validator == nil {
		return false, errNoValidator
	}
	ch := g.group.DoChan(token, func() (interface{}, error) {
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ValidationTimeout)
		defer cancel()
		return g.validator.VerifyToken(vctx, token)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func deny(reason Reason) Decision {
	return Decision{Redirect: UnauthorizedPath, Reason: reason}
}
