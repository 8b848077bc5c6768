// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/paginate"
	"github.com/jonathan/job-board-client/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxSkillsToShow is how many skills a result line lists
	maxSkillsToShow = 4
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func salary(from, to int) string {
	switch {
	case from == 0 && to == 0:
		return "not specified"
	case to == 0:
		return "from " + strconv.Itoa(from)
	default:
		return fmt.Sprintf("%d-%d", from, to)
	}
}

func skillNames(skills []types.Skill) string {
	names := make([]string, 0, min(len(skills), maxSkillsToShow))
	for i, s := range skills {
		if i == maxSkillsToShow {
			names = append(names, fmt.Sprintf("+%d", len(skills)-maxSkillsToShow))
			break
		}
		names = append(names, s.SkillName)
	}
	return strings.Join(names, ", ")
}

// pageFooter renders the page position and the page links, marking the current one.
func pageFooter(number, totalPages, total int) string {
	links := paginate.Links(totalPages)
	parts := make([]string, len(links))
	for i, n := range links {
		if n == number {
			parts[i] = fmt.Sprintf("[%d]", n)
		} else {
			parts[i] = strconv.Itoa(n)
		}
	}
	return fmt.Sprintf("Page %d of %d (%d results)  %s", number, totalPages, total, strings.Join(parts, " "))
}

// PrintUser outputs the signed-in user, or a note that nobody is.
func (p *Printer) PrintUser(user *types.User) {
	if user == nil {
		p.printBox("SESSION", "Not signed in")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:   %s\n", user.DisplayName()))
	sb.WriteString(fmt.Sprintf("Role:   %s\n", user.Role))
	if user.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:  %s\n", user.Email))
	}
	if user.ID != 0 {
		sb.WriteString(fmt.Sprintf("ID:     %d\n", user.ID))
	}

	p.printBox("SIGNED IN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResumePage outputs one page of resume results. A non-empty notice
// replaces the list.
func (p *Printer) PrintResumePage(page paginate.Page[types.FoundResume], notice string) {
	if notice != "" {
		p.printBox("RESUMES", notice)
		return
	}

	var sb strings.Builder
	for i, r := range page.Items {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", r.ResumeID, r.Title))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  Salary: %s\n", r.Score, salary(r.SalaryFrom, r.SalaryTo)))
		if r.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", r.Location))
		}
		if len(r.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", skillNames(r.Skills)))
		}
		if i < len(page.Items)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n" + pageFooter(page.Number, page.TotalPages, page.Total))

	p.printBox("RESUMES", sb.String())
}

// PrintVacancyPage outputs one page of vacancy results. A non-empty notice
// replaces the list.
func (p *Printer) PrintVacancyPage(page paginate.Page[types.FoundVacancy], notice string) {
	if notice != "" {
		p.printBox("VACANCIES", notice)
		return
	}

	var sb strings.Builder
	for i, v := range page.Items {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", v.VacancyID, v.Title))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  Salary: %s\n", v.Score, salary(v.SalaryFrom, v.SalaryTo)))
		if v.WorkMode != "" || v.Location != "" {
			sb.WriteString(fmt.Sprintf("    %s %s\n", v.WorkMode, v.Location))
		}
		if len(v.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", skillNames(v.Skills)))
		}
		if i < len(page.Items)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n" + pageFooter(page.Number, page.TotalPages, page.Total))

	p.printBox("VACANCIES", sb.String())
}

// PrintResume outputs a resume card.
func (p *Printer) PrintResume(d *types.ResumeDetail) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:      %s\n", d.Resume.Title))
	sb.WriteString(fmt.Sprintf("Candidate:  %s %s\n", d.Candidate.FirstName, d.Candidate.LastName))
	sb.WriteString(fmt.Sprintf("Experience: %d years\n", d.Resume.ExperienceAge))
	sb.WriteString(fmt.Sprintf("Salary:     %s\n", salary(d.Resume.SalaryFrom, d.Resume.SalaryTo)))
	if d.Resume.Location != "" {
		sb.WriteString(fmt.Sprintf("Location:   %s\n", d.Resume.Location))
	}
	if d.Resume.Summary != "" {
		sb.WriteString("\n" + d.Resume.Summary + "\n")
	}
	writeSkills(&sb, d.Skills)

	p.printBox(fmt.Sprintf("RESUME #%d", d.Resume.ID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVacancy outputs a vacancy card.
func (p *Printer) PrintVacancy(d *types.VacancyDetail) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:      %s\n", d.Vacancy.Title))
	sb.WriteString(fmt.Sprintf("Employer:   %s %s\n", d.Employer.FirstName, d.Employer.LastName))
	sb.WriteString(fmt.Sprintf("Experience: %d-%d years\n", d.Vacancy.ExperienceAgeFrom, d.Vacancy.ExperienceAgeTo))
	sb.WriteString(fmt.Sprintf("Salary:     %s\n", salary(d.Vacancy.SalaryFrom, d.Vacancy.SalaryTo)))
	if d.Vacancy.WorkMode != "" {
		sb.WriteString(fmt.Sprintf("Work mode:  %s\n", d.Vacancy.WorkMode))
	}
	if d.Vacancy.Summary != "" {
		sb.WriteString("\n" + d.Vacancy.Summary + "\n")
	}
	writeSkills(&sb, d.Skills)

	p.printBox(fmt.Sprintf("VACANCY #%d", d.Vacancy.ID), strings.TrimSuffix(sb.String(), "\n"))
}

func writeSkills(sb *strings.Builder, skills []types.Skill) {
	if len(skills) == 0 {
		return
	}
	sb.WriteString("\nSkills:\n")
	for _, s := range skills {
		sb.WriteString(fmt.Sprintf("  • %s", s.SkillName))
		if s.ExperienceAge > 0 {
			sb.WriteString(fmt.Sprintf(" (%d y)", s.ExperienceAge))
		}
		sb.WriteString("\n")
	}
}

// PrintEvent outputs one session event received from another tab.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(ev broadcast.Event) {
	line := fmt.Sprintf("%s  %s", ev.SentAt.Format("15:04:05"), ev.Type)
	if ev.User != nil {
		line += "  " + ev.User.DisplayName()
	}
	fmt.Fprintln(p.out, line)
}
