package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"example from the search form", "a, b ,,c", []string{"a", "b", "c"}},
		{"two skills", "Python, Docker", []string{"Python", "Docker"}},
		{"empty", "", []string{}},
		{"only separators", " , ,, ", []string{}},
		{"keeps duplicates and order", "Go, SQL, Go", []string{"Go", "SQL", "Go"}},
		{"inner spaces kept", " machine learning , k8s", []string{"machine learning", "k8s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input))
		})
	}
}

func TestBuild_ListGroups(t *testing.T) {
	in := RawInputs{}
	in.Set(GroupSkills, FieldInclude, "Python, Docker")
	in.Set(GroupSkills, FieldExclude, "PHP")
	in.Set(GroupSummary, FieldInclude, "remote,")
	in.Set(GroupDescription, FieldPrefer, "startup")

	q := Build(in, TargetResumes)

	assert.Equal(t, []string{"Python", "Docker"}, q.Filters.Skills.MustHave)
	assert.Equal(t, []string{"PHP"}, q.Filters.Skills.MustNotHave)
	assert.Equal(t, []string{}, q.Filters.Skills.ShouldHave)
	assert.Equal(t, []string{"remote"}, q.Filters.Summary.MustHave)
	assert.Equal(t, []string{"startup"}, q.Filters.Description.ShouldHave)
}

func TestBuild_NumericDefaults(t *testing.T) {
	in := RawInputs{}
	in.Set(GroupSalary, FieldFrom, "abc")
	in.Set(GroupSalary, FieldTo, "")
	in.Set(GroupExperience, FieldFrom, "-3")
	in.Set(GroupExperience, FieldTo, "1e3")

	q := Build(in, TargetResumes)

	assert.Equal(t, 0, q.Filters.Salary.MinSalary)
	assert.Equal(t, MaxSalary, q.Filters.Salary.MaxSalary)
	assert.Equal(t, 0, q.Filters.ExperienceResume.MinYears)
	assert.Equal(t, MaxExperienceYears, q.Filters.ExperienceResume.MaxYears)
}

func TestBuild_NumericParsed(t *testing.T) {
	in := RawInputs{}
	in.Set(GroupSalary, FieldFrom, " 50000 ")
	in.Set(GroupSalary, FieldTo, "150000")
	in.Set(GroupExperience, FieldFrom, "2")
	in.Set(GroupExperience, FieldTo, "5")

	q := Build(in, TargetVacancies)

	assert.Equal(t, 50000, q.Filters.Salary.MinSalary)
	assert.Equal(t, 150000, q.Filters.Salary.MaxSalary)
	assert.Equal(t, 2, q.Filters.ExperienceVacancy.MinYears)
	assert.Equal(t, 5, q.Filters.ExperienceVacancy.MaxYears)
	// the other experience group stays open
	assert.Equal(t, 0, q.Filters.ExperienceResume.MinYears)
	assert.Equal(t, MaxExperienceYears, q.Filters.ExperienceResume.MaxYears)
}

func TestBuild_AlwaysFullyPopulated(t *testing.T) {
	q := Build(nil, TargetResumes)
	f := q.Filters
	for _, list := range [][]string{
		f.Skills.MustHave, f.Skills.ShouldHave, f.Skills.MustNotHave,
		f.Summary.MustHave, f.Summary.ShouldHave, f.Summary.MustNotHave,
		f.Description.MustHave, f.Description.ShouldHave, f.Description.MustNotHave,
		f.Demographics.Locations, f.Employment.Types,
	} {
		assert.NotNil(t, list)
		assert.Empty(t, list)
	}
	assert.Equal(t, MaxAge, f.Demographics.AgeRange.To)
	assert.Equal(t, MaxSalary, f.Salary.MaxSalary)
	assert.Equal(t, Default(TargetResumes), q)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	in := RawInputs{}
	in.Set(GroupSkills, FieldInclude, "Go, Rust")

	first := Build(in, TargetResumes)
	first.Filters.Skills.MustHave[0] = "changed"

	second := Build(in, TargetResumes)
	assert.Equal(t, []string{"Go", "Rust"}, second.Filters.Skills.MustHave)
	assert.Equal(t, "Go, Rust", in[GroupSkills][FieldInclude])
}

func TestBuild_LocationsAndEmployment(t *testing.T) {
	in := RawInputs{}
	in.Set(GroupLocations, FieldValues, "Moscow, Kazan")
	in.Set(GroupEmployment, FieldValues, "full_time")
	in.Set(GroupAge, FieldFrom, "18")

	q := Build(in, TargetResumes)
	assert.Equal(t, []string{"Moscow", "Kazan"}, q.Filters.Demographics.Locations)
	assert.Equal(t, []string{"full_time"}, q.Filters.Employment.Types)
	assert.Equal(t, 18, q.Filters.Demographics.AgeRange.From)
	assert.Equal(t, MaxAge, q.Filters.Demographics.AgeRange.To)
}
