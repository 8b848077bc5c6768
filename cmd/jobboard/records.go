package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-board-client/internal/auth"
	"github.com/jonathan/job-board-client/internal/observability"
	"github.com/jonathan/job-board-client/internal/paginate"
	"github.com/jonathan/job-board-client/internal/query"
	"github.com/jonathan/job-board-client/internal/search"
	"github.com/jonathan/job-board-client/internal/session"
	"github.com/jonathan/job-board-client/internal/snapshot"
	"github.com/jonathan/job-board-client/internal/types"
)

// errNotSignedIn is returned by record commands run without a session.
var errNotSignedIn = errors.New("not signed in, run 'jobboard login' first")

// parseFilters turns group.field=value flags into search form inputs.
func parseFilters(filters []string) (query.RawInputs, error) {
	in := query.RawInputs{}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		group, field, dotted := strings.Cut(key, ".")
		if !ok || !dotted || group == "" || field == "" {
			return nil, fmt.Errorf("invalid filter %q, want group.field=value", f)
		}
		in.Set(group, field, value)
	}
	return in, nil
}

// recordKind describes one result kind for the generic record commands.
type recordKind[T search.Scored] struct {
	name   string
	kind   snapshot.Kind
	target query.Target
	fetch  func(a *app) search.Fetcher[T]
	print  func(p *observability.Printer, page paginate.Page[T], notice string)
	show   func(ctx context.Context, a *app, token string, id int, p *observability.Printer) error
	create func(ctx context.Context, a *app, token string, data []byte) (json.RawMessage, error)
}

// signedIn opens the profile's session and requires it to hold a user.
func signedIn(ctx context.Context, a *app) (*session.Session, error) {
	s, err := a.session(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, errNotSignedIn
	}
	return s, nil
}

// view opens a mounted results view over the session's snapshot cache.
func (k recordKind[T]) view(a *app, s *session.Session) *search.View[T] {
	v := search.NewView(search.Options[T]{
		Kind:     k.kind,
		Target:   k.target,
		Fetch:    k.fetch(a),
		Cache:    s.Snapshots(),
		PageSize: a.cfg.PageSize,
		Logger:   a.logger,
	})
	v.Mount()
	return v
}

func (k recordKind[T]) command() *cobra.Command {
	parent := &cobra.Command{
		Use:   k.name,
		Short: fmt.Sprintf("Search, browse and create %s", k.name),
	}

	var filters []string
	searchCmd := &cobra.Command{
		Use:     "search",
		Short:   fmt.Sprintf("Search %s and show the first page", k.name),
		Example: fmt.Sprintf("  jobboard %s search --filter skills.include=go,sql --filter salary.from=1000", k.name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := parseFilters(filters)
			if err != nil {
				return err
			}
			ctx := contextOrBackground(cmd)
			return withApp(ctx, func(a *app) error {
				s, err := signedIn(ctx, a)
				if err != nil {
					return err
				}
				v := k.view(a, s)
				defer v.Unmount()
				if err := v.Submit(ctx, query.Build(in, k.target)); err != nil {
					a.logger.WithError(err).Debug("search failed")
				}
				k.print(observability.NewPrinter(cmd.OutOrStdout()), v.CurrentPage(), v.Notice())
				return nil
			})
		},
	}
	searchCmd.Flags().StringArrayVarP(&filters, "filter", "f", nil,
		"Filter as group.field=value (groups: skills, summary, description, salary, experience, age, locations, employment)")

	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("Show a page of the last %s search", k.name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd)
			return withApp(ctx, func(a *app) error {
				s, err := signedIn(ctx, a)
				if err != nil {
					return err
				}
				v := k.view(a, s)
				defer v.Unmount()
				if err := v.Load(ctx); err != nil {
					a.logger.WithError(err).Debug("first load failed")
				}
				k.print(observability.NewPrinter(cmd.OutOrStdout()), v.Page(page), v.Notice())
				return nil
			})
		},
	}
	listCmd.Flags().IntVar(&page, "page", 1, "Page to show")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: fmt.Sprintf("Forget the last %s search", k.name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd)
			return withApp(ctx, func(a *app) error {
				s, err := a.session(ctx, nil)
				if err != nil {
					return err
				}
				v := k.view(a, s)
				defer v.Unmount()
				return v.Reset(ctx)
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: fmt.Sprintf("Show one of the %s", k.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			ctx := contextOrBackground(cmd)
			return withApp(ctx, func(a *app) error {
				s, err := signedIn(ctx, a)
				if err != nil {
					return err
				}
				return k.show(ctx, a, s.Token(), id, observability.NewPrinter(cmd.OutOrStdout()))
			})
		},
	}

	var createFile string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Submit a new entry to %s from a JSON form", k.name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), createFile)
			if err != nil {
				return err
			}
			ctx := contextOrBackground(cmd)
			return withApp(ctx, func(a *app) error {
				s, err := signedIn(ctx, a)
				if err != nil {
					return err
				}
				created, err := k.create(ctx, a, s.Token(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", created)
				return nil
			})
		},
	}
	createCmd.Flags().StringVarP(&createFile, "in", "i", "-", "Path to the JSON form, - for stdin")

	parent.AddCommand(searchCmd, listCmd, resetCmd, showCmd, createCmd)
	return parent
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

var resumes = recordKind[types.FoundResume]{
	name:   "resumes",
	kind:   snapshot.KindResume,
	target: query.TargetResumes,
	fetch:  func(a *app) search.Fetcher[types.FoundResume] { return a.api.SearchResumes },
	print: func(p *observability.Printer, page paginate.Page[types.FoundResume], notice string) {
		p.PrintResumePage(page, notice)
	},
	show: func(ctx context.Context, a *app, token string, id int, p *observability.Printer) error {
		d, err := a.api.GetResume(ctx, token, id)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("resume %d not found", id)
		}
		p.PrintResume(d)
		return nil
	},
	create: func(ctx context.Context, a *app, token string, data []byte) (json.RawMessage, error) {
		var req types.CreateResumeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse resume form: %w", err)
		}
		if err := req.Validate(); err != nil {
			return nil, auth.ValidationError(err)
		}
		return a.api.CreateResume(ctx, token, &req)
	},
}

var vacancies = recordKind[types.FoundVacancy]{
	name:   "vacancies",
	kind:   snapshot.KindVacancy,
	target: query.TargetVacancies,
	fetch:  func(a *app) search.Fetcher[types.FoundVacancy] { return a.api.SearchVacancies },
	print: func(p *observability.Printer, page paginate.Page[types.FoundVacancy], notice string) {
		p.PrintVacancyPage(page, notice)
	},
	show: func(ctx context.Context, a *app, token string, id int, p *observability.Printer) error {
		d, err := a.api.GetVacancy(ctx, token, id)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("vacancy %d not found", id)
		}
		p.PrintVacancy(d)
		return nil
	},
	create: func(ctx context.Context, a *app, token string, data []byte) (json.RawMessage, error) {
		var req types.CreateVacancyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse vacancy form: %w", err)
		}
		if err := req.Validate(); err != nil {
			return nil, auth.ValidationError(err)
		}
		return a.api.CreateVacancy(ctx, token, &req)
	},
}

func init() {
	rootCmd.AddCommand(resumes.command(), vacancies.command())
}
