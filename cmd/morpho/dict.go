package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-morpho/internal/dict"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Dictionary utilities",
	}

	cmd.AddCommand(newDictInfoCmd())

	return cmd
}

func newDictInfoCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Load the dictionary and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			info := tok.Store().Info()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			writeInfoTable(cmd.OutOrStdout(), info)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func writeInfoTable(w io.Writer, info dict.Info) {
	unknown := strings.Join(info.Unknown, ",")
	if unknown == "" {
		unknown = "-"
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"FIELD", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	table.AppendBulk([][]string{
		{"source", info.Source},
		{"charset", info.Charset},
		{"entries", strconv.Itoa(info.Entries)},
		{"surfaces", strconv.Itoa(info.Surfaces)},
		{"matrix", fmt.Sprintf("%dx%d", info.RightSize, info.LeftSize)},
		{"unknown", unknown},
	})
	table.Render()
}
