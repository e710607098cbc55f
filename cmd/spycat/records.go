package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spycat/internal/engine"
)

func catCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "cat",
		Short: "Manage spy cats",
	}
	c.AddCommand(catCreateCmd())
	c.AddCommand(catListCmd())
	c.AddCommand(catGetCmd())
	c.AddCommand(catSalaryCmd())
	c.AddCommand(catDeleteCmd())
	return c
}

func catCreateCmd() *cobra.Command {
	var opts engine.CatCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Hire a cat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cat, err := e.CreateCat(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(cat)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "cat name")
	cmd.Flags().IntVar(&opts.ExperienceYears, "experience", 0, "years of experience")
	cmd.Flags().StringVar(&opts.Breed, "breed", "", "breed (see spycat breeds list)")
	cmd.Flags().Float64Var(&opts.Salary, "salary", 0, "salary")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("breed")
	return cmd
}

func catListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cats, err := e.ListCats(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(cats, renderCats(cats))
			})
		},
	}
	return cmd
}

func catGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a cat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("cat", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cat, err := e.GetCat(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cat)
			})
		},
	}
	return cmd
}

func catSalaryCmd() *cobra.Command {
	var salary float64
	cmd := &cobra.Command{
		Use:   "salary <id>",
		Short: "Update a cat's salary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("cat", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cat, err := e.UpdateCatSalary(ctx, id, salary)
				if err != nil {
					return err
				}
				return printJSON(cat)
			})
		},
	}
	cmd.Flags().Float64Var(&salary, "salary", 0, "new salary")
	_ = cmd.MarkFlagRequired("salary")
	return cmd
}

func catDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a cat that is not on a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("cat", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteCat(ctx, id); err != nil {
					return err
				}
				return printOK(fmt.Sprintf("cat %d deleted", id))
			})
		},
	}
	return cmd
}

func missionCmd() *cobra.Command {
	m := &cobra.Command{
		Use:   "mission",
		Short: "Manage missions",
	}
	m.AddCommand(missionCreateCmd())
	m.AddCommand(missionListCmd())
	m.AddCommand(missionGetCmd())
	m.AddCommand(missionAssignCmd())
	m.AddCommand(missionDeleteCmd())
	return m
}

func missionCreateCmd() *cobra.Command {
	var targetArgs []string
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a mission with 1-3 targets",
		Example: `  spycat mission create --target "Boris:Latvia" --target "Ivan:Estonia:last seen at the port"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]engine.TargetCreateOptions, 0, len(targetArgs))
			for _, s := range targetArgs {
				t, err := parseTargetFlag(s)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.CreateMission(ctx, targets)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
	cmd.Flags().StringArrayVar(&targetArgs, "target", nil, "target as name:country[:notes] (repeatable)")
	return cmd
}

func missionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				missions, err := e.ListMissions(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(missions, renderMissions(missions))
			})
		},
	}
	return cmd
}

func missionGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a mission and its targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("mission", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.GetMission(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(m, renderTargets(m))
			})
		},
	}
	return cmd
}

func missionAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <mission-id> <cat-id>",
		Short: "Assign a free cat to a mission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			missionID, err := parseID("mission", args[0])
			if err != nil {
				return err
			}
			catID, err := parseID("cat", args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.AssignCatToMission(ctx, missionID, catID)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
	return cmd
}

func missionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unassigned mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("mission", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteMission(ctx, id); err != nil {
					return err
				}
				return printOK(fmt.Sprintf("mission %d deleted", id))
			})
		},
	}
	return cmd
}

func targetCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "target",
		Short: "Work on mission targets",
	}
	t.AddCommand(targetNotesCmd())
	t.AddCommand(targetCompleteCmd())
	return t
}

func targetNotesCmd() *cobra.Command {
	var missionArg, notes string
	cmd := &cobra.Command{
		Use:   "notes <target-id>",
		Short: "Replace a target's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			missionID, err := parseID("mission", missionArg)
			if err != nil {
				return err
			}
			targetID, err := parseID("target", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTargetNotes(ctx, missionID, targetID, notes)
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&missionArg, "mission", "", "mission id")
	cmd.Flags().StringVar(&notes, "notes", "", "notes text")
	_ = cmd.MarkFlagRequired("mission")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func targetCompleteCmd() *cobra.Command {
	var missionArg string
	cmd := &cobra.Command{
		Use:   "complete <target-id>",
		Short: "Mark a target completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			missionID, err := parseID("mission", missionArg)
			if err != nil {
				return err
			}
			targetID, err := parseID("target", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.MarkTargetComplete(ctx, missionID, targetID)
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&missionArg, "mission", "", "mission id")
	_ = cmd.MarkFlagRequired("mission")
	return cmd
}

func printOK(msg string) error {
	if viper.GetBool("json") {
		return printJSON(map[string]bool{"ok": true})
	}
	fmt.Println(msg)
	return nil
}
