package types

// SearchOptions is a tri-state inclusion list for one text field.
type SearchOptions struct {
	MustHave    []string `json:"must_have"`
	ShouldHave  []string `json:"should_have"`
	MustNotHave []string `json:"must_not_have"`
}

// AgeRange bounds the candidate age.
type AgeRange struct {
	From int `json:"from_value"`
	To   int `json:"to"`
}

// Demographics filters candidates by age and location.
type Demographics struct {
	AgeRange  AgeRange `json:"age_range"`
	Locations []string `json:"locations"`
}

// ExperienceRange bounds years of experience.
type ExperienceRange struct {
	MinYears int `json:"min_years"`
	MaxYears int `json:"max_years"`
}

// SalaryRange bounds the salary.
type SalaryRange struct {
	MinSalary int `json:"min_salary"`
	MaxSalary int `json:"max_salary"`
}

// Employment filters by employment type.
type Employment struct {
	Types []string `json:"types"`
}

// SearchFilters holds every filter group. All groups are always present;
// an empty group means no constraint.
type SearchFilters struct {
	Skills            SearchOptions   `json:"skills"`
	Summary           SearchOptions   `json:"summary"`
	Description       SearchOptions   `json:"description"`
	Demographics      Demographics    `json:"demographics"`
	ExperienceVacancy ExperienceRange `json:"experience_vacancy"`
	ExperienceResume  ExperienceRange `json:"experience_resume"`
	Salary            SalaryRange     `json:"salary"`
	Employment        Employment      `json:"employment"`
}

// SearchQuery is the body of the resume and vacancy search endpoints.
type SearchQuery struct {
	Filters SearchFilters `json:"filters"`
}
