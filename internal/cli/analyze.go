package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adpulse/internal/pipeline"
	"adpulse/internal/store"
)

var (
	analyzeStart        int
	analyzeEnd          int
	analyzeBusinessName string
	analyzeBusinessType string
)

// analyzeCmd runs the full pipeline for a single segment.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <media-ref>",
	Short: "Analyze one segment of a video and decide on an ad",
	Long: `Analyze sends one time-bounded segment of the referenced media through
the full pipeline: perception, normalization, scoring, decision, and
(when warranted) ad generation. The resulting record is persisted and
a human-readable explanation is printed.

Examples:
  adpulse analyze gs://bucket/game.mp4 --start 120 --end 135
  adpulse analyze file:///tmp/clip.mp4 --start 0 --end 10 --business-name "Joe's Pizza" --business-type restaurant`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeStart, "start", 0, "segment start offset in seconds")
	analyzeCmd.Flags().IntVar(&analyzeEnd, "end", 0, "segment end offset in seconds (exclusive, must exceed start)")
	analyzeCmd.Flags().StringVar(&analyzeBusinessName, "business-name", "", "business to advertise for")
	analyzeCmd.Flags().StringVar(&analyzeBusinessType, "business-type", "", "kind of business (restaurant, bar, retail...)")
	addPipelineFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p, err := pipeline.New(cfg, st)
	if err != nil {
		return err
	}

	req := pipeline.SegmentRequest{
		MediaRef:     args[0],
		StartSec:     analyzeStart,
		EndSec:       analyzeEnd,
		BusinessName: analyzeBusinessName,
		BusinessType: analyzeBusinessType,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	outcome, err := p.ProcessSegment(cmd.Context(), req)
	if err != nil {
		return err
	}

	printOutcome(outcome)
	return nil
}

// printOutcome renders a single pipeline outcome for the terminal.
func printOutcome(o *pipeline.Outcome) {
	fmt.Printf("Segment [%d-%ds] %s\n", o.Record.StartSec, o.Record.EndSec, strings.ToUpper(string(o.Kind)))

	if o.Record.Discarded() {
		fmt.Printf("  Discarded: %s\n", o.Record.DiscardKind)
		fmt.Printf("  %s\n", o.Explanation)
		return
	}

	fmt.Printf("  Event: %s (%s, confidence %.2f)\n", o.Record.EventType, o.Record.Intensity, o.Record.Confidence)
	if o.Record.Summary != "" {
		fmt.Printf("  Summary: %s\n", o.Record.Summary)
	}
	fmt.Printf("  Score: %.1f\n", o.Record.Score)
	for _, reason := range o.Record.ScoreReasons {
		fmt.Printf("    - %s\n", reason)
	}
	fmt.Printf("  Decision: %s (urgency: %s)\n", o.Record.DecisionReason, o.Record.Urgency)

	if o.Ad != nil {
		fmt.Printf("  Ad copy: %s\n", o.Ad.AdCopy)
		if o.Ad.PromoSuggestion != "" {
			fmt.Printf("  Promo: %s\n", o.Ad.PromoSuggestion)
		}
		if len(o.Ad.Hashtags) > 0 {
			fmt.Printf("  Hashtags: %s\n", strings.Join(o.Ad.Hashtags, " "))
		}
	}
}
