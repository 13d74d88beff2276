package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"baitline/internal/config"
	"baitline/internal/replay"
)

// #endregion

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	configPath := flag.String("config", "", "path to YAML config (optional)")
	jsonOut := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--config path] [--json]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	summary, err := replay.Run(fixture, cfg.CombinerConfig(), cfg.PolicyConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal json: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		printSummary(summary)
	}

	if summary.Mismatches > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region output

func printSummary(s replay.Summary) {
	if s.Description != "" {
		fmt.Printf("Fixture: %s\n\n", s.Description)
	}

	fmt.Printf("%-4s  %10s  %-10s  %-10s  %8s  %s\n",
		"Turn", "Confidence", "Source", "Mode", "Continue", "Check")
	fmt.Printf("%-4s+-%10s+-%-10s+-%-10s+-%8s+-%s\n",
		"----", "----------", "----------", "----------", "--------", "--------------------")

	for _, r := range s.Results {
		check := "ok"
		if r.Mismatch != "" {
			check = "FAIL: " + r.Mismatch
		}
		fmt.Printf("%-4d  %10.2f  %-10s  %-10s  %8v  %s\n",
			r.Index, r.Output.Signal.Confidence, r.Output.Signal.Source,
			r.Output.Mode, r.Output.Continue, check)
	}

	fmt.Printf("\n%d turns, %d mismatches\n", s.TotalTurns, s.Mismatches)
	fmt.Printf("Final: mode=%s confidence=%.2f intel=%d",
		s.Final.LastMode, s.Final.LastConfidence, s.Final.Intelligence.Count())
	if s.Final.Terminal {
		fmt.Printf(" exit=%s", s.Final.ExitReason)
	}
	fmt.Println()
}

// #endregion output
