package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"osk/internal/logging"
	"osk/internal/predict"
)

func newPredictCmd() *cobra.Command {
	var (
		wordsFile string
		cacheFile string
		top       int
	)

	cmd := &cobra.Command{
		Use:   "predict <prefix>",
		Short: "Show suggestions and next-letter probabilities for a prefix",
		Long: `Load the configured word list (or --words) and print the suggestions
and next-letter probabilities the keyboard would use after typing prefix.
The word cache is refreshed as a side effect.`,
		Example: `  oskctl predict hel
  oskctl predict th --words /usr/share/dict/words --cache ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadSettings()
			if err != nil {
				return err
			}
			raw, cached := s.Trie.RawFile, s.Trie.CachedFile
			if cmd.Flags().Changed("words") {
				raw = wordsFile
			}
			if cmd.Flags().Changed("cache") {
				cached = cacheFile
			}

			trie, err := predict.Load(cmd.Context(), raw, cached, logging.Default().WithComponent("predict"))
			if err != nil {
				return err
			}

			prefix := strings.ToLower(args[0])
			suggestions := trie.Search(prefix)
			probs := trie.NextCharProbabilities(prefix)
			letters := make([]string, 0, len(probs))
			for l := range probs {
				letters = append(letters, l)
			}
			sort.Slice(letters, func(i, j int) bool {
				if probs[letters[i]] != probs[letters[j]] {
					return probs[letters[i]] > probs[letters[j]]
				}
				return letters[i] < letters[j]
			})
			if top > 0 && len(letters) > top {
				letters = letters[:top]
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				shown := make(map[string]float64, len(letters))
				for _, l := range letters {
					shown[l] = probs[l]
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"prefix":        prefix,
					"suggestions":   suggestions,
					"probabilities": shown,
				})
			}

			fmt.Fprintf(out, "Words:       %d\n", trie.Len())
			fmt.Fprintf(out, "Suggestions: %s\n", strings.Join(suggestions, ", "))
			fmt.Fprintln(out, "Next letters:")
			for _, l := range letters {
				fmt.Fprintf(out, "  %s  %.3f\n", l, probs[l])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wordsFile, "words", "", "Word list to load instead of trie.raw_file")
	cmd.Flags().StringVar(&cacheFile, "cache", "", "Word cache to use instead of trie.cached_file")
	cmd.Flags().IntVar(&top, "top", 10, "Number of next letters to show (0 for all)")
	return cmd
}
