// Package query turns raw search form input into a fully populated SearchQuery.
package query

import (
	"strconv"
	"strings"

	"github.com/jonathan/job-board-client/internal/types"
)

// Filter group names accepted in RawInputs.
const (
	GroupSkills      = "skills"
	GroupSummary     = "summary"
	GroupDescription = "description"
	GroupSalary      = "salary"
	GroupExperience  = "experience"
	GroupAge         = "age"
	GroupLocations   = "locations"
	GroupEmployment  = "employment"
)

// Field names inside a group.
const (
	FieldInclude = "include"
	FieldExclude = "exclude"
	FieldPrefer  = "prefer"
	FieldFrom    = "from"
	FieldTo      = "to"
	FieldValues  = "values"
)

// Open range bounds substituted when a numeric field is absent or unparsable.
const (
	MaxSalary          = 9999999
	MaxExperienceYears = 100
	MaxAge             = 150
)

// Target selects which result kind the query is built for.
type Target int

const (
	TargetResumes Target = iota
	TargetVacancies
)

// RawInputs maps a group name to its fields and the raw text typed into each.
type RawInputs map[string]map[string]string

// Set stores a raw value, creating the group as needed.
func (in RawInputs) Set(group, field, value string) {
	if in[group] == nil {
		in[group] = make(map[string]string)
	}
	in[group][field] = value
}

func (in RawInputs) get(group, field string) string {
	if g, ok := in[group]; ok {
		return g[field]
	}
	return ""
}

// Build constructs a SearchQuery from raw inputs. Unknown groups are ignored.
func Build(in RawInputs, target Target) types.SearchQuery {
	q := Default(target)
	f := &q.Filters

	f.Skills = options(in, GroupSkills)
	f.Summary = options(in, GroupSummary)
	f.Description = options(in, GroupDescription)

	f.Salary = types.SalaryRange{
		MinSalary: parseBound(in.get(GroupSalary, FieldFrom), 0),
		MaxSalary: parseBound(in.get(GroupSalary, FieldTo), MaxSalary),
	}

	exp := types.ExperienceRange{
		MinYears: parseBound(in.get(GroupExperience, FieldFrom), 0),
		MaxYears: parseBound(in.get(GroupExperience, FieldTo), MaxExperienceYears),
	}
	if target == TargetVacancies {
		f.ExperienceVacancy = exp
	} else {
		f.ExperienceResume = exp
	}

	f.Demographics = types.Demographics{
		AgeRange: types.AgeRange{
			From: parseBound(in.get(GroupAge, FieldFrom), 0),
			To:   parseBound(in.get(GroupAge, FieldTo), MaxAge),
		},
		Locations: SplitList(in.get(GroupLocations, FieldValues)),
	}
	f.Employment = types.Employment{Types: SplitList(in.get(GroupEmployment, FieldValues))}

	return q
}

// Default returns the query with no constraints in any group.
func Default(_ Target) types.SearchQuery {
	return types.SearchQuery{Filters: types.SearchFilters{
		Skills:            emptyOptions(),
		Summary:           emptyOptions(),
		Description:       emptyOptions(),
		Demographics:      types.Demographics{AgeRange: types.AgeRange{From: 0, To: MaxAge}, Locations: []string{}},
		ExperienceVacancy: types.ExperienceRange{MinYears: 0, MaxYears: MaxExperienceYears},
		ExperienceResume:  types.ExperienceRange{MinYears: 0, MaxYears: MaxExperienceYears},
		Salary:            types.SalaryRange{MinSalary: 0, MaxSalary: MaxSalary},
		Employment:        types.Employment{Types: []string{}},
	}}
}

// SplitList splits a comma separated list, trimming whitespace and dropping
// empty tokens. Order is kept and duplicates are not removed.
func SplitList(s string) []string {
	out := []string{}
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func options(in RawInputs, group string) types.SearchOptions {
	return types.SearchOptions{
		MustHave:    SplitList(in.get(group, FieldInclude)),
		ShouldHave:  SplitList(in.get(group, FieldPrefer)),
		MustNotHave: SplitList(in.get(group, FieldExclude)),
	}
}

func emptyOptions() types.SearchOptions {
	return types.SearchOptions{MustHave: []string{}, ShouldHave: []string{}, MustNotHave: []string{}}
}

// parseBound parses a non-negative integer bound, falling back to def.
func parseBound(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
