package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/paginate"
	"github.com/jonathan/job-board-client/internal/types"
)

func TestPrintUser(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintUser(&types.User{
		ID:          3,
		FirstName:   "Grace",
		LastName:    "Hopper",
		CompanyName: "Navy",
		Email:       "grace@example.com",
		Role:        types.RoleEmployer,
	})
	output := buf.String()

	assert.Contains(t, output, "SIGNED IN")
	assert.Contains(t, output, "Grace Hopper (Navy)")
	assert.Contains(t, output, "employer")
	assert.Contains(t, output, "grace@example.com")
}

func TestPrintUser_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintUser(nil)

	assert.Contains(t, buf.String(), "Not signed in")
}

func TestPrintResumePage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	items := []types.FoundResume{
		{ResumeID: 4, Title: "Backend engineer", Score: 0.9, SalaryFrom: 100, SalaryTo: 150,
			Skills: []types.Skill{{SkillName: "go"}, {SkillName: "sql"}, {SkillName: "k8s"}, {SkillName: "grpc"}, {SkillName: "rust"}}},
		{ResumeID: 9, Title: "Data engineer", Score: 0.4},
	}
	page := paginate.Paginate(items, 2, 1)
	page.TotalPages = 3
	page.Total = 6

	p.PrintResumePage(page, "")
	output := buf.String()

	assert.Contains(t, output, "#4  Backend engineer")
	assert.Contains(t, output, "100-150")
	assert.Contains(t, output, "go, sql, k8s, grpc, +1")
	assert.Contains(t, output, "not specified")
	assert.Contains(t, output, "Page 1 of 3 (6 results)  [1] 2 3")
}

func TestPrintResumePage_Notice(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResumePage(paginate.Page[types.FoundResume]{Number: 1, TotalPages: 1}, "not found, try refreshing")
	output := buf.String()

	assert.Contains(t, output, "not found, try refreshing")
	assert.NotContains(t, output, "Page 1")
}

func TestPrintVacancyPage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	items := []types.FoundVacancy{{VacancyID: 2, Title: "SRE", WorkMode: "remote", SalaryFrom: 80}}
	p.PrintVacancyPage(paginate.Paginate(items, 10, 1), "")
	output := buf.String()

	assert.Contains(t, output, "VACANCIES")
	assert.Contains(t, output, "#2  SRE")
	assert.Contains(t, output, "from 80")
	assert.Contains(t, output, "remote")
}

func TestPrintResume(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResume(&types.ResumeDetail{
		Resume:    types.ResumeDescription{ID: 5, Title: "Go developer", ExperienceAge: 4, Summary: "Builds services."},
		Skills:    []types.Skill{{SkillName: "go", ExperienceAge: 4}},
		Candidate: types.Candidate{FirstName: "Ada", LastName: "Lovelace"},
	})
	output := buf.String()

	assert.Contains(t, output, "RESUME #5")
	assert.Contains(t, output, "Ada Lovelace")
	assert.Contains(t, output, "Builds services.")
	assert.Contains(t, output, "go (4 y)")
}

func TestPrintVacancy_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintVacancy(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ev := broadcast.LoginSuccess(&types.User{Username: "ada"})
	ev.SentAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	p.PrintEvent(ev)

	assert.Equal(t, "09:30:00  LOGIN_SUCCESS  ada\n", buf.String())
}
