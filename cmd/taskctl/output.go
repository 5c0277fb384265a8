package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mdadnanhusaain/ToDo-List/client"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
)

type viewJSON struct {
	Date    string         `json:"date"`
	Tasks   []domain.Task  `json:"tasks"`
	Summary domain.Summary `json:"summary"`
}

func (s *session) printView(v client.View) error {
	if s.json {
		return s.writeJSON(viewJSON{Date: v.Date.String(), Tasks: v.Tasks, Summary: v.Summary})
	}

	fmt.Fprintf(s.out, "%s (%s)\n", v.Date, v.Date.Weekday())
	if len(v.Tasks) == 0 {
		fmt.Fprintln(s.out, "  no tasks")
	} else {
		s.writeTable(v.Tasks, false)
	}
	fmt.Fprintln(s.out)
	return s.printSummary(v.Date, v.Summary)
}

func (s *session) printSummary(d datekey.Date, sum domain.Summary) error {
	if s.json {
		return s.writeJSON(struct {
			Date string `json:"date"`
			domain.Summary
		}{Date: d.String(), Summary: sum})
	}
	fmt.Fprintf(s.out, "Week of %s: %d completed, %d pending\n", d, sum.Completed, sum.Pending)
	return nil
}

func (s *session) printTasks(tasks []domain.Task) error {
	if s.json {
		return s.writeJSON(tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(s.out, "no tasks")
		return nil
	}
	s.writeTable(tasks, true)
	return nil
}

func (s *session) writeTable(tasks []domain.Task, withDate bool) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		cols := []string{"  " + checkbox(t.Status), t.ID}
		if withDate {
			cols = append(cols, t.Date.String())
		}
		cols = append(cols, timeSpan(t), string(t.Priority), t.Title)
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	w.Flush()
}

func (s *session) writeJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkbox(st domain.Status) string {
	if st == domain.StatusCompleted {
		return "[x]"
	}
	return "[ ]"
}

func timeSpan(t domain.Task) string {
	switch {
	case t.StartTime != "" && t.EndTime != "":
		return t.StartTime + "-" + t.EndTime
	case t.StartTime != "":
		return t.StartTime
	case t.EndTime != "":
		return "-" + t.EndTime
	}
	return "-"
}
