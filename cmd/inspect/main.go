package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"baitline/internal/policy"
	"baitline/internal/session"
)

// #endregion

// #region main

func main() {
	dbPath := flag.String("db", "", "path to baitline.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/baitline.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	store, err := session.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		if err := runDetailMode(store, *sessionID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := runListMode(store, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region list-mode

func runListMode(store *session.SQLiteStore, last int, jsonOut bool) error {
	sessions, err := store.List(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	if jsonOut {
		return printJSON(sessions)
	}

	fmt.Printf("%-12s  %5s  %10s  %-10s  %5s  %-21s  %s\n",
		"Session", "Turns", "Confidence", "Mode", "Intel", "Exit", "Created")
	fmt.Printf("%-12s+-%5s+-%10s+-%-10s+-%5s+-%-21s+-%s\n",
		"------------", "-----", "----------", "----------", "-----", "---------------------", "--------------------")

	for _, s := range sessions {
		exit := s.ExitReason
		if exit == "" {
			exit = "—"
		}
		fmt.Printf("%-12s  %5d  %10.2f  %-10s  %5d  %-21s  %s\n",
			shortID(s.ID), s.TurnCount, s.LastConfidence, s.LastMode,
			s.Intelligence.Count(), exit, s.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *session.SQLiteStore, sessionID string, jsonOut bool) error {
	sess, found, err := store.Get(sessionID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("session %s not found", sessionID)
	}

	if jsonOut {
		return printJSON(sess)
	}

	fmt.Printf("Session:    %s\n", sess.ID)
	fmt.Printf("Created:    %s\n", sess.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Turns:      %d\n", sess.TurnCount)
	fmt.Printf("Confidence: %.2f\n", sess.LastConfidence)
	fmt.Printf("Mode:       %s\n", sess.LastMode)
	if sess.LastCategory != "" {
		fmt.Printf("Category:   %s\n", sess.LastCategory)
	}
	if sess.Terminal {
		fmt.Printf("Exit:       %s\n", sess.ExitReason)
	}

	fmt.Printf("\nIntelligence (%d values):\n", sess.Intelligence.Count())
	for _, cat := range session.Categories {
		values := sess.Intelligence[cat]
		if len(values) == 0 {
			continue
		}
		fmt.Printf("  %-16s", cat)
		for i, v := range values {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(v)
		}
		fmt.Println()
	}

	pol := policy.New(policy.DefaultConfig())
	missing := pol.MissingCategories(sess.Intelligence)
	if len(missing) > 0 {
		fmt.Printf("\nMissing for completeness:\n")
		for _, cat := range missing {
			fmt.Printf("  %s\n", cat)
		}
	} else {
		fmt.Printf("\nCompleteness objective satisfied.\n")
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion output
