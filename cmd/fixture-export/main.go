package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"baitline/internal/detect"
	"baitline/internal/logging"
	"baitline/internal/replay"
	"baitline/internal/session"
)

// #endregion

// #region main

func main() {
	dbPath := flag.String("db", "", "path to baitline.db")
	sessionID := flag.String("session", "", "session id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --session id --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, sessionID, outPath string) error {
	store, err := session.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	transcript, err := logging.NewTranscript(store.DB())
	if err != nil {
		return err
	}
	entries, err := transcript.ListTurns(sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no turn log rows for session %s", sessionID)
	}

	fixture := buildFixture(sessionID, entries)

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("exported %d turns for session %s to %s\n", len(entries), sessionID, outPath)
	return nil
}

// buildFixture reconstructs a replay fixture from recorded turns. The
// classifier script is only recoverable for turns the classifier
// actually decided; pattern and floor turns replay deterministically
// without one.
func buildFixture(sessionID string, entries []logging.TurnEntry) replay.Fixture {
	fixture := replay.Fixture{
		Description: fmt.Sprintf("exported session %s", sessionID),
		SessionID:   sessionID,
	}

	for _, e := range entries {
		turn := replay.FixtureTurn{
			Sender: e.Sender,
			Text:   e.Text,
		}
		if e.Source == string(detect.SourceClassifier) {
			turn.Classification = &replay.FixtureClassification{
				IsScam:     true,
				Confidence: e.Confidence,
				Category:   e.Category,
			}
		}
		if e.Reply != "" {
			turn.Reply = &replay.FixtureReply{Text: e.Reply}
		}

		confidence := e.Confidence
		cont := e.ExitReason == ""
		turn.Expect = &replay.FixtureExpectation{
			Confidence: &confidence,
			Mode:       e.Mode,
			Continue:   &cont,
			ExitReason: e.ExitReason,
			Source:     e.Source,
		}
		fixture.Turns = append(fixture.Turns, turn)
	}
	return fixture
}

// #endregion export
