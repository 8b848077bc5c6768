package types

// Skill is a skill line on a resume or vacancy.
type Skill struct {
	SkillName     string `json:"skill_name"`
	Description   string `json:"description,omitempty"`
	ExperienceAge int    `json:"experience_age,omitempty"`
}

// FoundResume is one resume search hit.
type FoundResume struct {
	ResumeID       int     `json:"resume_id"`
	UserID         int     `json:"user_id,omitempty"`
	Title          string  `json:"title,omitempty"`
	Summary        string  `json:"summary,omitempty"`
	Age            int     `json:"age,omitempty"`
	Location       string  `json:"location,omitempty"`
	SalaryFrom     int     `json:"salary_from,omitempty"`
	SalaryTo       int     `json:"salary_to,omitempty"`
	EmploymentType string  `json:"employment_type,omitempty"`
	ExperienceAge  int     `json:"experience_age,omitempty"`
	Status         string  `json:"status,omitempty"`
	Skills         []Skill `json:"skills,omitempty"`
	Score          float64 `json:"score"`
}

// GetScore returns the relevance score of the hit.
func (r FoundResume) GetScore() float64 { return r.Score }

// FoundVacancy is one vacancy search hit.
type FoundVacancy struct {
	VacancyID         int     `json:"vacancy_id"`
	EmployerID        int     `json:"employer_id,omitempty"`
	Title             string  `json:"title,omitempty"`
	Summary           string  `json:"summary,omitempty"`
	ExperienceAgeFrom int     `json:"experience_age_from,omitempty"`
	ExperienceAgeTo   int     `json:"experience_age_to,omitempty"`
	Location          string  `json:"location,omitempty"`
	SalaryFrom        int     `json:"salary_from,omitempty"`
	SalaryTo          int     `json:"salary_to,omitempty"`
	EmploymentType    string  `json:"employment_type,omitempty"`
	WorkMode          string  `json:"work_mode,omitempty"`
	Skills            []Skill `json:"skills,omitempty"`
	Score             float64 `json:"score"`
}

// GetScore returns the relevance score of the hit.
func (v FoundVacancy) GetScore() float64 { return v.Score }

// ResumeDescription is the resume part of a resume detail record.
type ResumeDescription struct {
	ID             int    `json:"id"`
	CandidateID    int    `json:"candidate_id"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	ExperienceAge  int    `json:"experience_age"`
	Location       string `json:"location"`
	SalaryFrom     int    `json:"salary_from"`
	SalaryTo       int    `json:"salary_to"`
	EmploymentType string `json:"employment_type"`
	Status         string `json:"status"`
}

// Candidate is the owner block of a resume detail record.
type Candidate struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age,omitempty"`
	Phone     int64  `json:"phone,omitempty"`
}

// ResumeDetail is the body of GET /resumes/{id}.
type ResumeDetail struct {
	Resume    ResumeDescription `json:"resume_description"`
	Skills    []Skill           `json:"skills"`
	Candidate Candidate         `json:"candidate"`
}

// VacancyDescription is the vacancy part of a vacancy detail record.
type VacancyDescription struct {
	ID                int    `json:"id"`
	EmployerID        int    `json:"employer_id"`
	Title             string `json:"title"`
	Summary           string `json:"summary"`
	ExperienceAgeFrom int    `json:"experience_age_from"`
	ExperienceAgeTo   int    `json:"experience_age_to"`
	Location          string `json:"location"`
	SalaryFrom        int    `json:"salary_from"`
	SalaryTo          int    `json:"salary_to"`
	EmploymentType    string `json:"employment_type"`
	WorkMode          string `json:"work_mode"`
}

// Employer is the owner block of a vacancy detail record.
type Employer struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     int64  `json:"phone,omitempty"`
}

// VacancyDetail is the body of GET /vacancies/{id}.
type VacancyDetail struct {
	Vacancy  VacancyDescription `json:"vacancy_description"`
	Skills   []Skill            `json:"skills"`
	Employer Employer           `json:"employer"`
}
