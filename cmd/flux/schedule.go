package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flux/internal/driver"
	"flux/internal/emit"
	"flux/internal/form"
	"flux/internal/pipeline"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [flags]",
	Short: "Print the pass schedule for a target form",
	Long: `Schedule shows the canonical lowering chain to a target form with any
extra passes merged in, exactly as a build would run it`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("target", "low", "form to lower to (source|high|mid|low)")
	scheduleCmd.Flags().StringSlice("pass", nil, "extra pass to merge into the schedule (repeatable)")
	scheduleCmd.Flags().Bool("list", false, "list the passes schedulable by name and exit")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(driver.DefaultRegistry().Names(), "\n"))
		return nil
	}

	targetValue, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	passNames, err := cmd.Flags().GetStringSlice("pass")
	if err != nil {
		return err
	}

	target, err := form.Parse(targetValue)
	if err != nil {
		return err
	}
	extra, err := driver.DefaultRegistry().LookupAll(passNames)
	if err != nil {
		return err
	}

	canon, err := pipeline.CanonicalLowering(form.Source, target)
	if err != nil {
		return err
	}
	pl, err := pipeline.New(canon, emit.Emitter(target))
	if err != nil {
		return err
	}
	schedule, err := pl.Schedule(extra)
	if err != nil {
		return err
	}

	for _, p := range schedule {
		fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s -> %s\n", p.Name(), p.InputForm(), p.OutputForm())
	}
	return nil
}
