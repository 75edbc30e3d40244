package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/search"
)

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出路线图（支持深度搜索与状态过滤）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			q, _ := cmd.Flags().GetString("query")
			status, _ := cmd.Flags().GetString("status")
			listing := session.Visible(q, status)
			return printOutput(cmd.OutOrStdout(), cfg.Output, listing, func(w io.Writer) {
				printListing(w, listing)
			})
		},
	}
	c.Flags().StringP("query", "q", "", "搜索词（匹配各层级标题，不区分大小写）")
	c.Flags().StringP("status", "s", "", "状态过滤: all/draft/published/archived")
	return c
}

func printListing(w io.Writer, listing editor.Listing) {
	if len(listing.Cards) == 0 {
		gray.Fprintln(w, "no roadmaps")
		return
	}
	for _, card := range listing.Cards {
		r := card.Roadmap
		fmt.Fprintf(w, "%-24s ", r.ID)
		printSpan(w, card.Title)
		fmt.Fprint(w, "  ")
		statusColor(r.Status).Fprint(w, r.Status)
		gray.Fprintf(w, "  %d levels\n", len(r.Levels))
		for _, h := range card.Hits {
			if h.Kind == roadmap.KindRoadmap {
				continue
			}
			trail := ""
			if len(h.Trail) > 0 {
				trail = strings.Join(h.Trail, " › ") + " › "
			}
			gray.Fprintf(w, "    %s: %s", h.Kind, trail)
			printSpan(w, h.Span)
			fmt.Fprintln(w)
		}
	}
	gray.Fprintf(w, "%d of %d roadmaps\n", len(listing.Cards), listing.Total)
}

// printSpan 高亮输出匹配片段
func printSpan(w io.Writer, s search.Span) {
	fmt.Fprint(w, s.Before)
	if s.Found {
		highlight.Fprint(w, s.Match)
		fmt.Fprint(w, s.After)
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <roadmap-id>",
		Short: "显示路线图完整层级",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			r, err := session.Store.Roadmap(args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, r, func(w io.Writer) {
				printTree(w, r)
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "显示服务端统计与本地计数",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			remote, err := session.Store.RemoteStats(ctx)
			if err != nil {
				return err
			}
			local := roadmap.Counts(session.Store.Snapshot())
			out := map[string]roadmap.Stats{"remote": remote, "local": local}
			return printOutput(cmd.OutOrStdout(), cfg.Output, out, func(w io.Writer) {
				fmt.Fprintf(w, "%-12s %8s %8s\n", "", "remote", "local")
				fmt.Fprintf(w, "%-12s %8d %8d\n", "roadmaps", remote.Roadmaps, local.Roadmaps)
				fmt.Fprintf(w, "%-12s %8d %8d\n", "levels", remote.Levels, local.Levels)
				fmt.Fprintf(w, "%-12s %8d %8d\n", "milestones", remote.Milestones, local.Milestones)
				fmt.Fprintf(w, "%-12s %8d %8d\n", "challenges", remote.Challenges, local.Challenges)
			})
		},
	}
}
