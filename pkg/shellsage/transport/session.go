package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jholhewres/shellsage/pkg/shellsage/agent"
	"github.com/jholhewres/shellsage/pkg/shellsage/config"
	"github.com/jholhewres/shellsage/pkg/shellsage/history"
	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/safety"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// connSession owns one WebSocket connection: its own shell, its own
// conversation memory, and a processing flag so a second goal cannot be
// submitted while a turn is in flight (teacher message_queue.go's
// processing-flag idiom, applied per-connection instead of per-queue).
type connSession struct {
	conn   *websocket.Conn
	writeMu sync.Mutex // gorilla/websocket connections are not safe for concurrent writers

	orchestrator *agent.Orchestrator
	llm          llmclient.Completer
	shell        *shell.Session
	bounds       agent.Bounds
	history      *history.Store

	memory []agent.MemoryEntry

	mu         sync.Mutex
	processing bool

	logger *slog.Logger
}

func newConnSession(conn *websocket.Conn, cfg *config.Config, llm llmclient.Completer, store *history.Store, logger *slog.Logger) *connSession {
	logger = logger.With("component", "transport_session")

	bounds := agent.Bounds{
		MaxRetries:              cfg.Agent.MaxRetries,
		MaxReplans:              cfg.Agent.MaxReplans,
		MaxIterations:           cfg.Agent.MaxIterations,
		PartialSuccessThreshold: cfg.Agent.PartialSuccessThreshold,
	}

	sh := shell.New(cfg.ShellPath, logger)
	gate := safety.NewGateFromPatterns(cfg.Safety.AllowDestructive, cfg.Safety.ExtraPatterns)

	orch := agent.NewOrchestrator(logger,
		agent.NewRouter(logger),
		agent.NewChat(cfg.Name, logger),
		agent.NewPlanner(cfg.ShellPath, logger),
		agent.NewExecutor(logger, gate),
		agent.NewRepair(logger),
		agent.NewSummary(logger),
	)

	return &connSession{
		conn:         conn,
		orchestrator: orch,
		llm:          llm,
		shell:        sh,
		bounds:       bounds,
		history:      store,
		logger:       logger,
	}
}

// emit writes one event frame to the WebSocket connection. Safe for
// concurrent callers (interactive prompt handlers may emit from within
// shell.Session.Run while the main turn goroutine is also emitting).
func (cs *connSession) emit(kind, content string) {
	payload, err := encodeEvent(kind, content)
	if err != nil {
		cs.logger.Error("failed to encode event", "kind", kind, "error", err)
		return
	}
	cs.writeMu.Lock()
	defer cs.writeMu.Unlock()
	if err := cs.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		cs.logger.Warn("failed to write event", "kind", kind, "error", err)
	}
}

// handleGoal runs exactly one turn for an incoming goal message. If a
// turn is already in flight, the goal is rejected rather than queued —
// this assistant drives one shell at a time, so a burst of goals would
// only race on the same terminal.
func (cs *connSession) handleGoal(ctx context.Context, goal string) {
	cs.mu.Lock()
	if cs.processing {
		cs.mu.Unlock()
		cs.emit(KindError, "a request is already in progress; please wait for it to finish")
		return
	}
	cs.processing = true
	cs.mu.Unlock()

	defer func() {
		cs.mu.Lock()
		cs.processing = false
		cs.mu.Unlock()
	}()

	turnID := uuid.NewString()
	startedAt := time.Now()

	ac := &agent.Context{
		Goal:   goal,
		Memory: &cs.memory,
		Bounds: cs.bounds,
		LLM:    cs.llm,
		Shell:  cs.shell,
		Emit:   cs.emit,
	}

	steps := cs.orchestrator.RunTurn(ctx, ac)

	if cs.history != nil {
		done, failed, total := 0, 0, len(steps)
		for _, s := range steps {
			switch s.Status {
			case agent.StatusDone:
				done++
			case agent.StatusFailed:
				failed++
			}
		}
		rec := history.TurnRecord{
			TurnID:      turnID,
			Goal:        goal,
			StartedAt:   startedAt,
			FinishedAt:  time.Now(),
			StepCount:   total,
			DoneCount:   done,
			FailedCount: failed,
			FinalStatus: finalStatus(done, failed, total),
		}
		if err := cs.history.RecordTurn(ctx, rec); err != nil {
			cs.logger.Warn("failed to record turn history", "turn_id", turnID, "error", err)
		}
	}
}

func finalStatus(done, failed, total int) string {
	switch {
	case total == 0:
		return "completed"
	case failed == 0:
		return "completed"
	case done == 0:
		return "blocked"
	default:
		return "incomplete"
	}
}

// readLoop reads goal frames from the connection until it closes.
func (cs *connSession) readLoop(ctx context.Context) {
	defer cs.shell.Close()
	defer cs.conn.Close()

	for {
		_, payload, err := cs.conn.ReadMessage()
		if err != nil {
			cs.logger.Info("connection closed", "error", err)
			return
		}

		goal := parseGoal(payload)
		if goal == "" {
			// Empty user message: ignored by the transport (spec.md §8),
			// not treated as an error.
			continue
		}

		go cs.handleGoal(ctx, goal)
	}
}
