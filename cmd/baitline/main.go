package main

// #region imports
import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"baitline/internal/classify"
	"baitline/internal/config"
	"baitline/internal/engage"
	"baitline/internal/logging"
	"baitline/internal/orchestrator"
	"baitline/internal/report"
	"baitline/internal/session"
)

// #endregion

// #region main
func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config (optional)")
	sessionID := flag.String("session", "", "resume an existing session id")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store := orchestrator.OpenStore(cfg.DBPath)
	defer store.Close()

	orch := orchestrator.New(
		cfg.CombinerConfig(),
		cfg.PolicyConfig(),
		buildClassifier(cfg),
		buildResponder(cfg),
		store,
		buildReporter(cfg),
	)

	if sqlStore, ok := store.(*session.SQLiteStore); ok {
		tr, err := logging.NewTranscript(sqlStore.DB())
		if err != nil {
			log.Printf("[MAIN] turn log disabled: %v", err)
		} else {
			orch.SetTurnLog(tr)
		}
	}

	sid := *sessionID
	if sid == "" {
		sid = uuid.NewString()
	}

	fmt.Println("baitline interactive session")
	fmt.Printf("  DB: %s | session: %s\n", cfg.DBPath, sid)
	fmt.Println("Paste counterpart messages. Commands: /state /end quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		switch line {
		case "/state":
			printState(store, sid)
			continue
		case "/end":
			out, err := orch.ProcessTurn(context.Background(), orchestrator.Message{
				SessionID: sid,
				Sender:    orchestrator.SenderControl,
				Text:      orchestrator.EndSignal,
				Timestamp: time.Now(),
			})
			if err != nil {
				log.Printf("end signal: %v", err)
				continue
			}
			fmt.Printf("session finalized: reason=%s turns=%d\n", out.ExitReason, out.TurnCount)
			continue
		}

		out, err := orch.ProcessTurn(context.Background(), orchestrator.Message{
			SessionID: sid,
			Sender:    orchestrator.SenderCounterpart,
			Text:      line,
			Timestamp: time.Now(),
		})
		if err != nil {
			log.Printf("turn error: %v", err)
			continue
		}

		if out.Reply != "" {
			fmt.Printf("\n%s\n\n", out.Reply)
		}
		fmt.Printf("[turn-%d] source=%s confidence=%.2f category=%s mode=%s intel=%d",
			out.TurnCount, out.Signal.Source, out.Signal.Confidence,
			out.Signal.Category, out.Mode, out.Intel.Count())
		if !out.Continue {
			fmt.Printf(" EXIT=%s", out.ExitReason)
		}
		fmt.Println()
	}
}

// #endregion main

// #region wiring

func buildClassifier(cfg config.Config) classify.Adapter {
	if cfg.Collab.APIKey == "" {
		log.Println("[MAIN] no API key configured, classifier disabled")
		return classify.Disabled{}
	}
	return classify.NewOpenAIAdapter(cfg.Collab.APIKey, cfg.Collab.BaseURL,
		cfg.Collab.ClassifyModel, cfg.Collab.ClassifyTimeout.Std())
}

func buildResponder(cfg config.Config) engage.Responder {
	if cfg.Collab.APIKey == "" {
		log.Println("[MAIN] no API key configured, using fallback replies")
		return engage.Disabled{}
	}
	return engage.NewOpenAIResponder(cfg.Collab.APIKey, cfg.Collab.BaseURL,
		cfg.Collab.EngageModel, cfg.Collab.EngageTimeout.Std())
}

func buildReporter(cfg config.Config) report.Reporter {
	if cfg.ReportURL == "" {
		return report.Nop{}
	}
	return report.NewWebhook(cfg.ReportURL, cfg.Collab.ReportTimeout.Std())
}

func printState(store session.Store, sid string) {
	sess, found, err := store.Get(sid)
	if err != nil {
		log.Printf("get session: %v", err)
		return
	}
	if !found {
		fmt.Println("no session yet")
		return
	}
	data, _ := json.MarshalIndent(sess, "", "  ")
	fmt.Println(string(data))
}

// #endregion wiring
