package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/roadmap/selection"
)

func newBulkCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "bulk <publish|archive|delete> <roadmap-id>...",
		Short: "批量发布、归档或删除路线图",
		Long: `对多个路线图执行同一操作。每一项独立执行，单项失败不影响其余项，
结束后汇报成功与失败数量。delete 需要 --yes 确认。`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := selection.ParseAction(args[0])
			if err != nil {
				return err
			}
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")
			for _, id := range args[1:] {
				session.Selection.Toggle(id, true)
			}
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			res, err := session.Bulk(ctx, action, yes)
			if err != nil {
				return err
			}
			sum := res.Summary()
			if err := printOutput(cmd.OutOrStdout(), cfg.Output, sum, func(w io.Writer) {
				for _, id := range sum.Succeeded {
					okLine(w, "%s %s", action, id)
				}
				failed := make([]string, 0, len(sum.Failed))
				for id := range sum.Failed {
					failed = append(failed, id)
				}
				sort.Strings(failed)
				for _, id := range failed {
					failLine(w, "%s %s: %s", action, id, sum.Failed[id])
				}
				fmt.Fprintf(w, "%d succeeded, %d failed\n", sum.Success, sum.Failure)
			}); err != nil {
				return err
			}
			if sum.Failure > 0 {
				return fmt.Errorf("%d of %d items failed", sum.Failure, sum.Success+sum.Failure)
			}
			return nil
		},
	}
	c.Flags().BoolP("yes", "y", false, "确认删除")
	return c
}
