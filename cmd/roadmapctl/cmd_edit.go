package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "创建路线图、关卡、里程碑或挑战",
	}
	cmd.AddCommand(newAddRoadmapCmd())
	cmd.AddCommand(newAddChildCmd(roadmap.KindLevel))
	cmd.AddCommand(newAddChildCmd(roadmap.KindMilestone))
	cmd.AddCommand(newAddChildCmd(roadmap.KindChallenge))
	return cmd
}

func newAddRoadmapCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "roadmap",
		Short: "创建路线图",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			in := roadmap.RoadmapInput{
				Title:       mustGetString(cmd, "title"),
				Description: mustGetString(cmd, "description"),
				Icon:        mustGetString(cmd, "icon"),
				Visibility:  roadmap.Visibility(mustGetString(cmd, "visibility")),
				Status:      roadmap.Status(mustGetString(cmd, "status")),
			}
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			r, err := session.Store.CreateRoadmap(ctx, in)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, r, func(w io.Writer) {
				okLine(w, "created roadmap %s (%s)", r.ID, r.Title)
			})
		},
	}
	c.Flags().String("title", "", "标题（必选）")
	c.Flags().String("description", "", "描述")
	c.Flags().String("icon", "", "图标")
	c.Flags().String("visibility", "", "可见性: public/private (默认: private)")
	c.Flags().String("status", "", "状态: draft/published/archived (默认: draft)")
	return c
}

// parentFlag 返回子实体所需父节点的标志名
func parentFlag(kind roadmap.Kind) string {
	parent, _ := kind.Parent()
	return string(parent)
}

func newAddChildCmd(kind roadmap.Kind) *cobra.Command {
	parentKind, _ := kind.Parent()
	c := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("在 %s 下追加 %s", parentKind, kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			var in any
			switch kind {
			case roadmap.KindLevel:
				in = &roadmap.LevelInput{
					Title:              mustGetString(cmd, "title"),
					UnlockRequirements: mustGetString(cmd, "unlock"),
				}
			case roadmap.KindMilestone:
				m := &roadmap.MilestoneInput{
					Title:       mustGetString(cmd, "title"),
					Description: mustGetString(cmd, "description"),
				}
				if cmd.Flags().Changed("due") {
					v := mustGetString(cmd, "due")
					m.DueDate = &v
				}
				if cmd.Flags().Changed("reward") {
					v := mustGetString(cmd, "reward")
					m.Reward = &v
				}
				in = m
			case roadmap.KindChallenge:
				resources, _ := cmd.Flags().GetStringSlice("resource")
				in = &roadmap.ChallengeInput{
					Title:       mustGetString(cmd, "title"),
					Description: mustGetString(cmd, "description"),
					Type:        roadmap.ChallengeType(mustGetString(cmd, "type")),
					Resources:   resources,
				}
			}
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			p, err := session.Store.CreateChild(ctx, parentKind, mustGetString(cmd, parentFlag(kind)), in)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, p, func(w io.Writer) {
				okLine(w, "created %s %s in roadmap %s", kind, nodeID(p), p.RoadmapID)
			})
		},
	}
	c.Flags().String(parentFlag(kind), "", fmt.Sprintf("父 %s ID（必选）", parentKind))
	_ = c.MarkFlagRequired(parentFlag(kind))
	c.Flags().String("title", "", "标题（必选）")
	switch kind {
	case roadmap.KindLevel:
		c.Flags().String("unlock", "", "解锁条件")
	case roadmap.KindMilestone:
		c.Flags().String("description", "", "描述（必选）")
		c.Flags().String("due", "", "截止日期 YYYY-MM-DD")
		c.Flags().String("reward", "", "奖励")
	case roadmap.KindChallenge:
		c.Flags().String("description", "", "描述（必选）")
		c.Flags().String("type", "", "类型: quiz/project/reading (默认: quiz)")
		c.Flags().StringSlice("resource", nil, "资源链接，可重复")
	}
	return c
}

func nodeID(p roadmap.Path) string {
	switch p.Kind() {
	case roadmap.KindChallenge:
		return p.ChallengeID
	case roadmap.KindMilestone:
		return p.MilestoneID
	case roadmap.KindLevel:
		return p.LevelID
	}
	return p.RoadmapID
}

func parseKindArg(s string) (roadmap.Kind, error) {
	kind, ok := roadmap.ParseKind(s)
	if !ok {
		return "", fmt.Errorf("unknown kind %q: use roadmap, level, milestone or challenge", s)
	}
	return kind, nil
}

func newEditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit <kind> <id>",
		Short: "修改实体字段（仅提交给出的标志）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			patch := patchFromFlags(cmd)
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			if err := session.Store.Update(ctx, kind, args[1], patch); err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, patch, func(w io.Writer) {
				okLine(w, "updated %s %s", kind, args[1])
			})
		},
	}
	c.Flags().String("title", "", "标题")
	c.Flags().String("description", "", "描述")
	c.Flags().String("icon", "", "图标（路线图）")
	c.Flags().String("visibility", "", "可见性（路线图）")
	c.Flags().String("status", "", "状态（路线图）")
	c.Flags().String("unlock", "", "解锁条件（关卡）")
	c.Flags().String("due", "", "截止日期 YYYY-MM-DD，空字符串清除（里程碑）")
	c.Flags().String("reward", "", "奖励（里程碑）")
	c.Flags().String("type", "", "类型（挑战）")
	c.Flags().StringSlice("resource", nil, "资源链接（挑战），可重复")
	return c
}

// patchFromFlags 只收集被显式设置的标志
func patchFromFlags(cmd *cobra.Command) roadmap.Patch {
	var p roadmap.Patch
	str := func(flag string) *string {
		if !cmd.Flags().Changed(flag) {
			return nil
		}
		v := mustGetString(cmd, flag)
		return &v
	}
	p.Title = str("title")
	p.Description = str("description")
	p.Icon = str("icon")
	p.UnlockRequirements = str("unlock")
	p.DueDate = str("due")
	p.Reward = str("reward")
	if v := str("visibility"); v != nil {
		vis := roadmap.Visibility(*v)
		p.Visibility = &vis
	}
	if v := str("status"); v != nil {
		st := roadmap.Status(*v)
		p.Status = &st
	}
	if v := str("type"); v != nil {
		t := roadmap.ChallengeType(*v)
		p.Type = &t
	}
	if cmd.Flags().Changed("resource") {
		p.Resources, _ = cmd.Flags().GetStringSlice("resource")
		if p.Resources == nil {
			p.Resources = []string{}
		}
	}
	return p
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "删除实体及其全部子节点",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			removed, err := session.Delete(ctx, kind, args[1])
			if err != nil {
				return err
			}
			out := map[string]any{"id": args[1], "kind": kind, "removedDescendants": removed}
			return printOutput(cmd.OutOrStdout(), cfg.Output, out, func(w io.Writer) {
				okLine(w, "deleted %s %s and %d descendants", kind, args[1], len(removed))
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "move <kind>",
		Short: "在同级中移动实体（索引从 0 开始）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			parent := mustGetString(cmd, "parent")
			from, _ := cmd.Flags().GetInt("from")
			to, _ := cmd.Flags().GetInt("to")
			ctx, cancel := requestContext(cmd, cfg)
			defer cancel()
			if err := session.Store.Move(ctx, kind, parent, from, to); err != nil {
				return err
			}
			out := map[string]any{"kind": kind, "parentId": parent, "from": from, "to": to}
			return printOutput(cmd.OutOrStdout(), cfg.Output, out, func(w io.Writer) {
				okLine(w, "moved %s %d → %d under %s", kind, from, to, parent)
			})
		},
	}
	c.Flags().String("parent", "", "父节点 ID（必选）")
	c.Flags().Int("from", 0, "原位置")
	c.Flags().Int("to", 0, "目标位置")
	_ = c.MarkFlagRequired("parent")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}

// mustGetString 获取字符串标志
func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}
