package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/job-board-client/internal/types"
)

// SearchResumes runs a resume search.
func (c *Client) SearchResumes(ctx context.Context, q types.SearchQuery) ([]types.FoundResume, error) {
	var out []types.FoundResume
	if _, err := c.do(ctx, request{op: "search resumes", method: http.MethodPost, path: "/resumes/search", body: q}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.FoundResume{}
	}
	return out, nil
}

// SearchVacancies runs a vacancy search.
func (c *Client) SearchVacancies(ctx context.Context, q types.SearchQuery) ([]types.FoundVacancy, error) {
	var out []types.FoundVacancy
	if _, err := c.do(ctx, request{op: "search vacancies", method: http.MethodPost, path: "/vacancies/search", body: q}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.FoundVacancy{}
	}
	return out, nil
}

// GetResume fetches one resume. A missing resume is (nil, nil).
func (c *Client) GetResume(ctx context.Context, token string, id int) (*types.ResumeDetail, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out types.ResumeDetail
	found, err := c.do(ctx, request{
		op:            "get resume",
		method:        http.MethodGet,
		path:          fmt.Sprintf("/resumes/%d", id),
		token:         token,
		allowNotFound: true,
	}, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// GetVacancy fetches one vacancy. A missing vacancy is (nil, nil).
func (c *Client) GetVacancy(ctx context.Context, token string, id int) (*types.VacancyDetail, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out types.VacancyDetail
	found, err := c.do(ctx, request{
		op:            "get vacancy",
		method:        http.MethodGet,
		path:          fmt.Sprintf("/vacancies/%d", id),
		token:         token,
		allowNotFound: true,
	}, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// CreateResume submits a new resume and returns the API's echo.
func (c *Client) CreateResume(ctx context.Context, token string, req *types.CreateResumeRequest) (json.RawMessage, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out json.RawMessage
	if _, err := c.do(ctx, request{op: "create resume", method: http.MethodPost, path: "/resumes/", token: token, body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVacancy submits a new vacancy and returns the API's echo.
func (c *Client) CreateVacancy(ctx context.Context, token string, req *types.CreateVacancyRequest) (json.RawMessage, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out json.RawMessage
	if _, err := c.do(ctx, request{op: "create vacancy", method: http.MethodPost, path: "/vacancies/", token: token, body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
