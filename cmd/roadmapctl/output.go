package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)

	highlight = color.New(color.FgYellow, color.Bold, color.Underline)
)

// printJSON 输出缩进 JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printOutput 按格式输出；text 模式调用 text 回调
func printOutput(w io.Writer, format string, v any, text func(io.Writer)) error {
	if format == "json" {
		return printJSON(w, v)
	}
	text(w)
	return nil
}

func okLine(w io.Writer, format string, args ...any) {
	green.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func failLine(w io.Writer, format string, args ...any) {
	red.Fprint(w, "✗ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func warnLine(w io.Writer, format string, args ...any) {
	yellow.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}

func statusColor(s roadmap.Status) *color.Color {
	switch s {
	case roadmap.StatusPublished:
		return green
	case roadmap.StatusArchived:
		return gray
	}
	return yellow
}

// printTree 以缩进形式输出整棵路线图
func printTree(w io.Writer, r roadmap.Roadmap) {
	cyan.Fprintf(w, "%s", r.Title)
	fmt.Fprintf(w, "  [%s] %s  ", r.ID, r.Visibility)
	statusColor(r.Status).Fprintln(w, r.Status)
	if r.Description != "" {
		gray.Fprintf(w, "  %s\n", r.Description)
	}
	for _, l := range r.Levels {
		fmt.Fprintf(w, "  %d. %s  [%s]\n", l.Order, l.Title, l.ID)
		for _, m := range l.Milestones {
			due := ""
			if m.DueDate != nil {
				due = "  due " + *m.DueDate
			}
			fmt.Fprintf(w, "    %d. %s  [%s]%s\n", m.Order, m.Title, m.ID, due)
			for _, c := range m.Challenges {
				fmt.Fprintf(w, "      %d. %s  (%s) [%s]\n", c.Order, c.Title, c.Type, c.ID)
				if len(c.Resources) > 0 {
					gray.Fprintf(w, "         %s\n", strings.Join(c.Resources, ", "))
				}
			}
		}
	}
}
