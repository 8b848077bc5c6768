package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-board-client/internal/query"
	"github.com/jonathan/job-board-client/internal/search"
	"github.com/jonathan/job-board-client/internal/session"
	"github.com/jonathan/job-board-client/internal/snapshot"
	"github.com/jonathan/job-board-client/internal/types"
)

// ProfileCookie names the cookie identifying a browser profile. Every tab of a
// browser sends the same value, so tabs share one session.
const ProfileCookie = "profile"

// profileCookieMaxAge keeps the profile id for a year.
const profileCookieMaxAge = 365 * 24 * 60 * 60

type contextKey string

const (
	profileKey       contextKey = "profile"
	profileIssuedKey contextKey = "profile_issued"
)

// ProfileFromContext returns the browser profile of the request.
func ProfileFromContext(ctx context.Context) string {
	p, _ := ctx.Value(profileKey).(string)
	return p
}

// profileIssued reports whether the request's profile was assigned just now,
// so nothing can be stored under it yet.
func profileIssued(ctx context.Context) bool {
	issued, _ := ctx.Value(profileIssuedKey).(bool)
	return issued
}

// withProfile assigns a profile id to first-time visitors and puts it in the
// request context.
func (s *Server) withProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, issued := "", false
		if c, err := r.Cookie(ProfileCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				profile = id.String()
			}
		}
		if profile == "" {
			profile, issued = uuid.NewString(), true
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookie,
				Value:    profile,
				Path:     "/",
				MaxAge:   profileCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), profileKey, profile)
		ctx = context.WithValue(ctx, profileIssuedKey, issued)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// profileViews holds the result pages of one browser profile.
type profileViews struct {
	resumes   *search.View[types.FoundResume]
	vacancies *search.View[types.FoundVacancy]
	cancel    func()
}

func (v *profileViews) unmount() {
	if v.cancel != nil {
		v.cancel()
	}
	v.resumes.Unmount()
	v.vacancies.Unmount()
}

// session returns the session of the request's profile.
func (s *Server) session(r *http.Request) (*session.Session, error) {
	return s.sessions.Get(r.Context(), ProfileFromContext(r.Context()))
}

// dropViews unmounts and forgets the views of a profile whose session left the
// registry.
func (s *Server) dropViews(profile string) {
	s.viewsMu.Lock()
	v, ok := s.views[profile]
	delete(s.views, profile)
	s.viewsMu.Unlock()
	if ok {
		v.unmount()
	}
}

// viewsFor returns the profile's result views, mounting them on first use.
// When the session signs out the views are emptied.
func (s *Server) viewsFor(profile string, sess *session.Session) *profileViews {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if v, ok := s.views[profile]; ok {
		return v
	}

	logger := s.logger.WithField("profile", profile)
	v := &profileViews{
		resumes: search.NewView(search.Options[types.FoundResume]{
			Kind:     snapshot.KindResume,
			Target:   query.TargetResumes,
			Fetch:    s.api.SearchResumes,
			Cache:    sess.Snapshots(),
			PageSize: s.pageSize,
			Logger:   logger,
		}),
		vacancies: search.NewView(search.Options[types.FoundVacancy]{
			Kind:     snapshot.KindVacancy,
			Target:   query.TargetVacancies,
			Fetch:    s.api.SearchVacancies,
			Cache:    sess.Snapshots(),
			PageSize: s.pageSize,
			Logger:   logger,
		}),
	}
	v.resumes.Mount()
	v.vacancies.Mount()

	v.cancel = sess.Subscribe(func(st session.State) {
		if st.Authenticated() || st.Initializing {
			return
		}
		ctx := context.Background()
		if err := v.resumes.Reset(ctx); err != nil {
			logger.WithError(err).Warn("failed to reset resume view")
		}
		if err := v.vacancies.Reset(ctx); err != nil {
			logger.WithError(err).Warn("failed to reset vacancy view")
		}
	})

	s.views[profile] = v
	return v
}
