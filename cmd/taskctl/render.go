package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/pkg/client"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Faint(true).Width(38)
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var priorityColors = map[model.Priority]lipgloss.Color{
	model.PriorityLow:    lipgloss.Color("8"),
	model.PriorityMedium: lipgloss.Color("4"),
	model.PriorityHigh:   lipgloss.Color("3"),
	model.PriorityUrgent: lipgloss.Color("1"),
}

func printTasks(w io.Writer, tasks []client.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, renderTask(t))
	}
}

func renderTask(t client.Task) string {
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}

	priority := lipgloss.NewStyle().
		Foreground(priorityColors[t.Priority]).
		Bold(t.Priority == model.PriorityUrgent).
		Width(7).
		Render(string(t.Priority))

	var b strings.Builder
	b.WriteString(idStyle.Render(t.ID))
	b.WriteString(check + " " + priority + " " + title)
	if t.DueDate != nil {
		b.WriteString("  due " + t.DueDate.Format("2006-01-02"))
	}
	if t.Category != nil {
		b.WriteString("  @" + *t.Category)
	}
	for _, tag := range t.Tags {
		b.WriteString(" " + tagStyle.Render("#"+tag))
	}
	return b.String()
}

func printStats(w io.Writer, st client.Stats) {
	rows := []struct {
		label string
		value int
	}{
		{"Total", st.Total},
		{"Completed", st.Completed},
		{"Pending", st.Pending},
		{"Overdue", st.Overdue},
		{"Due today", st.Today},
	}
	label := lipgloss.NewStyle().Width(12)
	for _, r := range rows {
		value := fmt.Sprint(r.value)
		if r.label == "Overdue" && r.value > 0 {
			value = errorStyle.Render(value)
		}
		fmt.Fprintln(w, label.Render(r.label)+value)
	}
}

// printGroups печатает категории по алфавиту
func printGroups(w io.Writer, groups map[string][]client.Task) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", headerStyle.Render(k), len(groups[k]))
		printTasks(w, groups[k])
	}
}

// explain adds the per-field messages of a validation failure to the error text.
func explain(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	lines := make([]string, 0, len(apiErr.Fields)+1)
	lines = append(lines, apiErr.Error())
	for _, f := range apiErr.Fields {
		lines = append(lines, fmt.Sprintf("  %s: %s", f.Field, f.Message))
	}
	return errors.New(strings.Join(lines, "\n"))
}
