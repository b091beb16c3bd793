package sitecheck

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderReport(r *Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"URL", "Source", "Status", "Duration", "Result"})

	for _, res := range r.Results {
		status := "-"
		if res.Status > 0 {
			status = strconv.Itoa(res.Status)
		}
		tw.AppendRow(table.Row{res.URL, string(res.Source), status, res.Duration.Round(time.Millisecond).String(), resultText(res)})
	}

	failed := len(r.Failed())
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d checked", len(r.Results)), "", "", r.Duration.Round(time.Millisecond).String(),
		fmt.Sprintf("%d failed", failed),
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func resultText(res Result) string {
	switch {
	case res.Err != nil:
		return "error: " + res.Err.Error()
	case res.OK():
		return "ok"
	default:
		return "FAIL"
	}
}
