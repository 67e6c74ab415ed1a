package main

import (
	"fmt"
	"time"

	"github.com/example/go-morpho/internal/bench"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		runs      int
		format    string
		maxMeanMS float64
	)

	cmd := &cobra.Command{
		Use:   "bench [text]",
		Short: "Benchmark tokenization latency and throughput",
		Long: "Tokenize a corpus repeatedly and report per-run timings. The corpus comes\n" +
			"from the arguments or, when none are given, from standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}
			mode, err := cfg.NormalizeMode()
			if err != nil {
				return err
			}

			corpus, err := readInputs(args, cmd.InOrStdin(), mode, cfg.Tokenizer.MaxInputBytes)
			if err != nil {
				return err
			}
			if len(corpus) == 0 {
				return fmt.Errorf("bench needs text from arguments or stdin")
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			results, err := bench.Run(cmd.Context(), bench.AnalyzerFunc(func(text string) (int, error) {
				tokens, err := tok.Tokenize(text)
				return len(tokens), err
			}), corpus, runs)
			if err != nil {
				return err
			}

			stats := bench.StatsOf(results)

			switch format {
			case formatJSON:
				if err := bench.FormatJSON(results, stats, cmd.OutOrStdout()); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			limit := time.Duration(maxMeanMS * float64(time.Millisecond))
			return bench.CheckMeanThreshold(stats.Mean, limit)
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 5, "Number of passes over the corpus")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table|json")
	cmd.Flags().Float64Var(&maxMeanMS, "max-mean-ms", 0, "Exit non-zero if the mean run exceeds this many milliseconds (0 = disabled)")

	return cmd
}
