package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/auth"
	"github.com/jonathan/job-board-client/internal/guard"
	"github.com/jonathan/job-board-client/internal/paginate"
	"github.com/jonathan/job-board-client/internal/query"
	"github.com/jonathan/job-board-client/internal/search"
	"github.com/jonathan/job-board-client/internal/types"
)

// resultsResponse is one page of a result view.
type resultsResponse[T any] struct {
	paginate.Page[T]
	Links  []int  `json:"links"`
	Notice string `json:"notice,omitempty"`
}

func pageResponse[T search.Scored](v *search.View[T], page paginate.Page[T]) resultsResponse[T] {
	if page.Items == nil {
		page.Items = []T{}
	}
	return resultsResponse[T]{Page: page, Links: paginate.Links(page.TotalPages), Notice: v.Notice()}
}

// pageParam returns the requested page, or 0 when none was asked for.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 0
	}
	return max(n, 1)
}

// rawInputs reads filter inputs from a JSON body ({"skills": {"include": "go"}})
// or a form with group.field keys (skills.include=go).
func rawInputs(w http.ResponseWriter, r *http.Request) (query.RawInputs, error) {
	in := query.RawInputs{}
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, values := range r.PostForm {
			group, field, ok := strings.Cut(key, ".")
			if !ok || len(values) == 0 {
				continue
			}
			in.Set(group, field, values[0])
		}
		return in, nil
	}
	if r.ContentLength == 0 {
		return in, nil
	}
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	return in, nil
}

// listResults shows the view, loading its snapshot or a first search if needed.
func listResults[T search.Scored](s *Server, w http.ResponseWriter, r *http.Request, v *search.View[T]) {
	if err := v.Load(r.Context()); err != nil && !errors.Is(err, search.ErrStale) {
		s.logger.WithError(err).Debug("first load failed, showing notice")
	}

	page := v.CurrentPage()
	if n := pageParam(r); n > 0 {
		page = v.Page(n)
	}
	s.jsonResponse(w, http.StatusOK, pageResponse(v, page))
}

// searchResults runs a search from the submitted filters and shows page 1.
// Failed searches still answer 200 with an empty page and the notice.
func searchResults[T search.Scored](s *Server, w http.ResponseWriter, r *http.Request, v *search.View[T], target query.Target) {
	in, err := rawInputs(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = v.Submit(r.Context(), query.Build(in, target))
	if errors.Is(err, search.ErrStale) {
		s.errorResponse(w, http.StatusConflict, "superseded by a newer search")
		return
	}
	if err != nil {
		s.logger.WithError(err).Debug("search failed, showing notice")
	}
	s.jsonResponse(w, http.StatusOK, pageResponse(v, v.CurrentPage()))
}

func resetResults[T search.Scored](s *Server, w http.ResponseWriter, r *http.Request, v *search.View[T]) {
	if err := v.Reset(r.Context()); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}

// viewsOf returns the result views of the request's profile.
func (s *Server) viewsOf(w http.ResponseWriter, r *http.Request) (*profileViews, bool) {
	sess, err := s.session(r)
	if err != nil {
		s.failure(w, err)
		return nil, false
	}
	return s.viewsFor(ProfileFromContext(r.Context()), sess), true
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		listResults(s, w, r, v.resumes)
	}
}

func (s *Server) handleSearchResumes(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		searchResults(s, w, r, v.resumes, query.TargetResumes)
	}
}

func (s *Server) handleResetResumes(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		resetResults(s, w, r, v.resumes)
	}
}

func (s *Server) handleListVacancies(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		listResults(s, w, r, v.vacancies)
	}
}

func (s *Server) handleSearchVacancies(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		searchResults(s, w, r, v.vacancies, query.TargetVacancies)
	}
}

func (s *Server) handleResetVacancies(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.viewsOf(w, r); ok {
		resetResults(s, w, r, v.vacancies)
	}
}

// handleCard shows one resume, or one vacancy when isVacancy=true. A record the
// API cannot deliver, for whatever reason, is shown as absent with the notice.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.errorResponse(w, http.StatusBadRequest, "Invalid id")
		return
	}
	token := guard.Token(r.Context())

	if r.URL.Query().Get("isVacancy") == "true" {
		v, err := s.api.GetVacancy(r.Context(), token, id)
		switch {
		case err != nil || v == nil:
			s.cardMissing(w, "vacancy", err)
		default:
			s.jsonResponse(w, http.StatusOK, v)
		}
		return
	}

	res, err := s.api.GetResume(r.Context(), token, id)
	switch {
	case err != nil || res == nil:
		s.cardMissing(w, "resume", err)
	default:
		s.jsonResponse(w, http.StatusOK, res)
	}
}

// cardMissing answers a detail fetch that produced no record. Only a missing
// token is reported as such; everything else reads as not found.
func (s *Server) cardMissing(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, api.ErrNoToken) {
		s.failure(w, err)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("record", what).Warn("detail fetch failed, showing notice")
	}
	s.jsonResponse(w, http.StatusNotFound, map[string]string{
		"error":  (&ErrNotFound{What: what}).Error(),
		"notice": search.NotFoundNotice,
	})
}

// handleCreateResume validates and forwards a new resume. On failure the
// message is returned and nothing is retried; the form stays with the caller.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var req types.CreateResumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.failure(w, auth.ValidationError(err))
		return
	}

	created, err := s.api.CreateResume(r.Context(), guard.Token(r.Context()), &req)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, json.RawMessage(created))
}

// handleCreateVacancy validates and forwards a new vacancy.
func (s *Server) handleCreateVacancy(w http.ResponseWriter, r *http.Request) {
	var req types.CreateVacancyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.failure(w, auth.ValidationError(err))
		return
	}

	created, err := s.api.CreateVacancy(r.Context(), guard.Token(r.Context()), &req)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, json.RawMessage(created))
}

// handleProfile fetches the signed-in user's profile for the role in the token.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	token := guard.Token(r.Context())
	c, err := s.decoder.Decode(token)
	if err != nil {
		s.failure(w, &auth.ErrInvalidCredentials{})
		return
	}

	user, err := s.api.Profile(r.Context(), token, c.Role)
	if err != nil {
		s.failure(w, err)
		return
	}
	user.Role = c.Role
	s.jsonResponse(w, http.StatusOK, user)
}
