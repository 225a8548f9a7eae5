package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
)

var statusColors = map[application.Status]*color.Color{
	application.StatusDraft:       color.New(color.FgHiBlack),
	application.StatusSubmitted:   color.New(color.FgBlue),
	application.StatusUnderReview: color.New(color.FgYellow),
	application.StatusApproved:    color.New(color.FgGreen),
	application.StatusRejected:    color.New(color.FgRed),
}

func statusText(s application.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.Label())
	}
	return string(s)
}

// listApplications prints the applications matching qf, then the counts of all of them.
func (cli *commandLine) listApplications(qf application.QueryFilter) error {
	all, err := cli.appRepo.QueryDetails(context.Background(), "")
	if err != nil {
		return err
	}
	matches := application.Filter(all, qf)

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Number", "Applicant", "Email", "Course", "Status", "Submitted"})
	for _, d := range matches {
		submitted := "-"
		if d.SubmittedAt != nil {
			submitted = d.SubmittedAt.Format("2006-01-02 15:04")
		}
		table.Append([]string{
			d.ApplicationNumber,
			d.Applicant.FullName,
			d.Applicant.Email,
			d.CourseName,
			statusText(d.Status),
			submitted,
		})
	}
	table.Render()

	st := application.ComputeStats(all)
	color.New(color.Bold).Fprintf(cli.out, "%d of %d applications", len(matches), st.Total)
	fmt.Fprintf(cli.out, " (submitted %d, under review %d, approved %d, rejected %d)\n",
		st.Submitted, st.UnderReview, st.Approved, st.Rejected)
	return nil
}
