package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/claims-risk/internal/dataset"
)

func newMergeCmd(a *app) *cobra.Command {
	var (
		how string
		out string
	)

	cmd := &cobra.Command{
		Use:   "merge <left.csv> <right.csv>",
		Short: "Join two quarterly tables on period",
		Long: `Join two quarterly CSV tables on their period column (or year and quarter
columns). An inner join keeps periods present in both; a left join keeps every
left period and leaves missing right cells empty.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			join, err := dataset.ParseJoinType(how)
			if err != nil {
				return err
			}
			left, err := dataset.ReadCSVFile(args[0])
			if err != nil {
				return err
			}
			right, err := dataset.ReadCSVFile(args[1])
			if err != nil {
				return err
			}
			merged, err := dataset.Merge(left, right, join)
			if err != nil {
				return fmt.Errorf("merge %s with %s: %w", args[0], args[1], err)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := merged.WriteCSVFile(out); err != nil {
				return err
			}
			a.logger.Info("tables merged",
				"left", args[0],
				"right", args[1],
				"how", join,
				"rows", merged.Len(),
				"path", out,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&how, "how", string(dataset.InnerJoin), "join type (inner|left)")
	cmd.Flags().StringVar(&out, "out", "", "output CSV")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
