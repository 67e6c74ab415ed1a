package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-morpho/internal/batch"
	"github.com/example/go-morpho/internal/text"
	"github.com/example/go-morpho/internal/tokenizer"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// Output formats for tokenize.
const (
	formatMeCab = "mecab"
	formatJSON  = "json"
	formatTable = "table"
)

func parseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", formatMeCab:
		return formatMeCab, nil
	case formatJSON, formatTable:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q (expected %s|%s|%s)", raw, formatMeCab, formatJSON, formatTable)
	}
}

func newTokenizeCmd() *cobra.Command {
	var nbest int
	var format string
	var workers int

	cmd := &cobra.Command{
		Use:   "tokenize [text]",
		Short: "Segment text into morphemes",
		Long: "Segment text into morphemes. Text comes from the arguments or, when none\n" +
			"are given, from standard input, one sentence per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			if nbest < 1 {
				return fmt.Errorf("--nbest must be >= 1, got %d", nbest)
			}
			mode, err := cfg.NormalizeMode()
			if err != nil {
				return err
			}

			inputs, err := readInputs(args, cmd.InOrStdin(), mode, cfg.Tokenizer.MaxInputBytes)
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			results, err := batch.Run(cmd.Context(), tok, inputs, batch.Options{NBest: nbest, Workers: workers})
			if err != nil {
				return err
			}

			return writeResults(cmd.OutOrStdout(), outFormat, results)
		},
	}

	cmd.Flags().IntVarP(&nbest, "nbest", "N", 1, "Number of analyses per input")
	cmd.Flags().StringVarP(&format, "format", "f", formatMeCab, "Output format: mecab|json|table")
	cmd.Flags().IntVar(&workers, "workers", 0, "Inputs analyzed in parallel (0 = GOMAXPROCS)")

	return cmd
}

// readInputs turns arguments or stdin into analysis units: one per line,
// normalized, and cut at sentence boundaries when a line exceeds maxBytes.
func readInputs(args []string, stdin io.Reader, mode text.Mode, maxBytes int) ([]string, error) {
	var raw string
	if len(args) > 0 {
		raw = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}

	var inputs []string
	for _, line := range text.SplitLines(raw) {
		line = text.Normalize(line, mode)
		if maxBytes > 0 && len(line) > maxBytes {
			inputs = append(inputs, text.ChunkBySentence(line, maxBytes)...)
			continue
		}
		inputs = append(inputs, line)
	}
	return inputs, nil
}

type jsonResult struct {
	Text     string             `json:"text"`
	Analyses []tokenizer.Scored `json:"analyses"`
}

func writeResults(w io.Writer, format string, results []batch.Result) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, r := range results {
			if err := enc.Encode(jsonResult{Text: r.Text, Analyses: r.Analyses}); err != nil {
				return err
			}
		}
		return nil
	case formatTable:
		for i, r := range results {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			writeTable(w, r)
		}
		return nil
	default:
		var b strings.Builder
		for _, r := range results {
			for _, a := range r.Analyses {
				tokenizer.WriteMeCab(&b, a.Tokens)
			}
		}
		_, err := io.WriteString(w, b.String())
		return err
	}
}

func writeTable(w io.Writer, r batch.Result) {
	var data [][]string
	for rank, a := range r.Analyses {
		for _, tok := range a.Tokens {
			unk := ""
			if tok.Unknown {
				unk = "*"
			}
			data = append(data, []string{
				strconv.Itoa(rank + 1),
				strconv.FormatInt(a.Cost, 10),
				tok.Surface,
				tok.Feature,
				strconv.Itoa(tok.Start),
				strconv.Itoa(tok.End),
				unk,
			})
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RANK", "COST", "SURFACE", "FEATURE", "START", "END", "UNK"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	table.AppendBulk(data)
	table.Render()
}
