package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flux/internal/driver"
	"flux/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.flx|directory>",
	Short: "Parse circuit sources and print them back",
	Long:  `Parse reads a .flx file or every .flx file in a directory and prints the circuits in canonical syntax`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("check", false, "validate only, print nothing")
}

func runParse(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	paths := []string{args[0]}
	if st.IsDir() {
		paths, err = driver.ListFiles(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no .flx files under %s", args[0])
		}
	}

	for _, path := range paths {
		c, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		if check || quiet {
			continue
		}
		fmt.Fprint(cmd.OutOrStdout(), c.String())
	}
	if check && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d file(s)\n", len(paths))
	}
	return nil
}
