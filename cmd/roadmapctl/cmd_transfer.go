package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "导出路线图为 JSON（未指定 --ids 时导出全部）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			ids, _ := cmd.Flags().GetStringSlice("ids")
			doc, err := session.Store.Export(ids)
			if err != nil {
				return err
			}
			out := mustGetString(cmd, "out")
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(append(doc.Body, '\n'))
				return err
			}
			if out == "" {
				out = doc.Filename
			}
			if err := os.WriteFile(out, doc.Body, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			result := map[string]any{"file": out, "scope": doc.Scope, "count": doc.Count}
			return printOutput(cmd.OutOrStdout(), cfg.Output, result, func(w io.Writer) {
				okLine(w, "exported %d roadmaps (%s) to %s", doc.Count, doc.Scope, out)
			})
		},
	}
	c.Flags().StringSlice("ids", nil, "仅导出这些路线图")
	c.Flags().String("out", "", "输出文件，- 表示标准输出 (默认: roadmaps-<scope>-<时间>.json)")
	return c
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "校验导出文件并预览合并结果（不写入服务端）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			res, err := session.Store.Import(raw)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, res, func(w io.Writer) {
				okLine(w, "parsed %d roadmaps from %s", len(res.Added), args[0])
				for _, h := range res.Hints {
					if h.SameID {
						warnLine(w, "%q reuses id %s of %q", h.IncomingTitle, h.ExistingID, h.ExistingTitle)
						continue
					}
					warnLine(w, "%q looks like existing %q (%s, distance %d)", h.IncomingTitle, h.ExistingTitle, h.ExistingID, h.Distance)
				}
				gray.Fprintln(w, "imported roadmaps are held locally and are not saved to the server")
			})
		},
	}
}
