package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/arfanana/smart-internship-engine/internal/catalog"
	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/matching"
)

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

// renderOutcome prints the ranked results and, when recorded, their match status.
func renderOutcome(w io.Writer, studentID int64, outcome matching.Outcome) {
	fmt.Fprintln(w, color.YellowString("\nTop internships for student %d", studentID))

	if len(outcome.Results) == 0 {
		fmt.Fprintln(w, color.CyanString("No eligible internships."))
		return
	}

	statuses := make(map[int64]domain.Match, len(outcome.Matches))
	for _, match := range outcome.Matches {
		statuses[match.InternshipID] = match
	}

	table := newTable(w, []string{"Rank", "Internship", "Title", "Domain", "Score", "Missing Skills", "Status"})
	for i, result := range outcome.Results {
		status := "-"
		if match, ok := statuses[result.InternshipID]; ok {
			status = colorStatus(match.Status)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(result.InternshipID, 10),
			result.Title,
			result.Domain,
			formatScore(result.MatchScore),
			strings.Join(result.MissingSkills, ", "),
			status,
		})
	}
	table.Render()

	if outcome.Pruned > 0 {
		fmt.Fprintln(w, color.CyanString("Removed %d stale pending matches.", outcome.Pruned))
	}
}

func renderMatches(w io.Writer, matches []domain.Match) {
	table := newTable(w, []string{"Match", "Internship", "Score", "Status", "Updated"})
	for _, match := range matches {
		table.Append([]string{
			strconv.FormatInt(match.ID, 10),
			strconv.FormatInt(match.InternshipID, 10),
			formatScore(match.Score),
			colorStatus(match.Status),
			match.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}

func renderStats(w io.Writer, stats domain.Stats) {
	fmt.Fprintln(w, color.YellowString("\nDatabase statistics"))
	table := newTable(w, []string{"Entity", "Count"})
	table.AppendBulk([][]string{
		{"Employers", strconv.FormatInt(stats.Employers, 10)},
		{"Students", strconv.FormatInt(stats.Students, 10)},
		{"Internships", strconv.FormatInt(stats.Internships, 10)},
		{"Matches", strconv.FormatInt(stats.Matches, 10)},
	})
	table.Render()
}

func renderSyncReport(w io.Writer, report catalog.Report) {
	fmt.Fprintln(w, color.YellowString("\nCatalog synchronized"))
	table := newTable(w, []string{"Entity", "Saved"})
	table.AppendBulk([][]string{
		{"Employers", strconv.Itoa(report.Employers)},
		{"Students", strconv.Itoa(report.Students)},
		{"Internships", strconv.Itoa(report.Internships)},
		{"Skipped", strconv.Itoa(report.Skipped)},
	})
	table.Render()
}

func colorStatus(status domain.Status) string {
	switch status {
	case domain.StatusAccepted:
		return color.GreenString(string(status))
	case domain.StatusRejected:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
