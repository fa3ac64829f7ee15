package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/project-tktt/salary-stats/internal/domain"
)

// Header is the first row of every rendered table
var Header = []string{"Язык программирования", "Вакансий найдено", "Вакансий обработано", "Средняя зарплата"}

// Rows converts a statistics table into display rows, header first
func Rows(table *domain.StatisticsTable) [][]string {
	rows := [][]string{Header}
	for _, s := range table.Entries() {
		if s.Failed() {
			rows = append(rows, []string{s.Term, "-", "-", pterm.Red("ошибка: " + s.Err.Error())})
			continue
		}
		rows = append(rows, []string{
			s.Term,
			humanize.Comma(int64(s.VacanciesFound)),
			humanize.Comma(int64(s.VacanciesProcessed)),
			ColorizeSalary(s.AverageSalary),
		})
	}
	return rows
}

// ColorizeSalary formats an average salary with thousands separators
func ColorizeSalary(avg *int) string {
	if avg == nil {
		return pterm.Gray("-")
	}

	formatted := humanize.Comma(int64(*avg))
	switch {
	case *avg >= 300000:
		return pterm.Green(formatted)
	case *avg >= 150000:
		return pterm.LightGreen(formatted)
	case *avg >= 80000:
		return pterm.Yellow(formatted)
	default:
		return pterm.Red(formatted)
	}
}

// Render writes table as a boxed console table titled title
func Render(w io.Writer, title string, table *domain.StatisticsTable) error {
	body, err := pterm.DefaultTable.WithHasHeader().WithData(Rows(table)).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	_, err = fmt.Fprintln(w, pterm.DefaultBox.WithTitle(title).Sprint(body))
	return err
}

// Title returns the display name of a source
func Title(source domain.JobSource) string {
	switch source {
	case domain.SourceHeadHunter:
		return "HeadHunter"
	case domain.SourceSuperJob:
		return "SuperJob"
	default:
		return string(source)
	}
}
