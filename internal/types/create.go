package types

// ResumeSkill is a skill line submitted with a new resume.
type ResumeSkill struct {
	ResumeID      int    `json:"resume_id"`
	SkillName     string `json:"skill_name" validate:"required"`
	ExperienceAge int    `json:"experience_age" validate:"min=0,max=100"`
	Description   string `json:"description"`
}

// CandidateResume is the resume body of the create form.
type CandidateResume struct {
	ID             int    `json:"id"`
	CandidateID    int    `json:"candidate_id"`
	Title          string `json:"title" validate:"required"`
	Summary        string `json:"summary"`
	ExperienceAge  int    `json:"experience_age" validate:"min=0,max=100"`
	Location       string `json:"location"`
	SalaryFrom     int    `json:"salary_from" validate:"min=0"`
	SalaryTo       int    `json:"salary_to" validate:"min=0,gtefield=SalaryFrom"`
	EmploymentType string `json:"employment_type"`
	Status         string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CreateResumeRequest is the body of POST /resumes/.
type CreateResumeRequest struct {
	Resume CandidateResume `json:"candidate_resume"`
	Skills []ResumeSkill   `json:"skills" validate:"dive"`
}

// VacancySkill is a skill line submitted with a new vacancy.
type VacancySkill struct {
	VacancyID         int    `json:"vacancy_id"`
	SkillName         string `json:"skill_name" validate:"required"`
	ExperienceAge     int    `json:"experience_age" validate:"min=0,max=100"`
	Description       string `json:"description"`
	DescriptionHidden string `json:"description_hidden"`
}

// Vacancy is the vacancy body of the create form.
type Vacancy struct {
	ID                int    `json:"id"`
	EmployerID        int    `json:"employer_id"`
	Title             string `json:"title" validate:"required"`
	Summary           string `json:"summary"`
	ExperienceAgeFrom int    `json:"experience_age_from" validate:"min=0,max=100"`
	ExperienceAgeTo   int    `json:"experience_age_to" validate:"min=0,max=100,gtefield=ExperienceAgeFrom"`
	Location          string `json:"location"`
	SalaryFrom        int    `json:"salary_from" validate:"min=0"`
	SalaryTo          int    `json:"salary_to" validate:"min=0,gtefield=SalaryFrom"`
	EmploymentType    string `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship"`
	WorkMode          string `json:"work_mode" validate:"omitempty,oneof=on_site remote hybrid"`
}

// CreateVacancyRequest is the body of POST /vacancies/.
type CreateVacancyRequest struct {
	Vacancy Vacancy        `json:"vacancy"`
	Skills  []VacancySkill `json:"skills" validate:"dive"`
}

// Validate validates the CreateResumeRequest using the validator.
func (r *CreateResumeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CreateVacancyRequest using the validator.
func (r *CreateVacancyRequest) Validate() error {
	return validate.Struct(r)
}
