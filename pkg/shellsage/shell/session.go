// Package shell implements a persistent interactive PTY-backed shell
// session. One Session wraps one long-lived `/bin/bash` process; commands
// are submitted serially and their completion is detected via a marker
// echoed after each command rather than by prompt-regex matching (a
// command's own output could itself resemble a prompt).
package shell

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrDead is returned when the PTY reaches EOF while a command is running
// (the underlying shell exited). The next Run restarts the shell.
var ErrDead = errors.New("shell session is dead")

// ErrTimeout is returned when a command does not complete within its
// deadline. Any output captured so far is discarded — the shell may
// still be producing it.
var ErrTimeout = errors.New("command timed out")

// EmitFunc streams intervening output to the caller while an interactive
// prompt handler is answering sub-prompts mid-command.
type EmitFunc func(kind, content string)

// pollInterval is how often the session checks elapsed wall time against
// a command's deadline. Per spec.md §4.1, roughly 2s chunks.
const pollInterval = 2 * time.Second

// Session is a single persistent interactive shell under a PTY. Only one
// command may be in flight at a time — commandMu serializes sendline and
// the subsequent read loop so they cannot interleave.
type Session struct {
	shellPath string
	logger    *slog.Logger

	commandMu sync.Mutex // guards the whole submit-and-wait lifecycle

	mu     sync.Mutex // guards the fields below
	cmd    *exec.Cmd
	ptmx   *os.File
	marker string
	alive  bool
}

// New creates a Session for the given shell binary (empty string defaults
// to /bin/bash). The session is not started until Start is called.
func New(shellPath string, logger *slog.Logger) *Session {
	if shellPath == "" {
		shellPath = "/bin/bash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		shellPath: shellPath,
		logger:    logger.With("component", "shell_session"),
	}
}

// Start spawns the shell under a PTY, tames its prompt and history, and
// drains the initial banner output. Safe to call again after the
// underlying process has died (it respawns).
func (s *Session) Start(ctx context.Context) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	return s.start(ctx)
}

func (s *Session) start(ctx context.Context) error {
	// The shell process is deliberately not bound to ctx: per spec.md §5,
	// client disconnect must not kill an in-flight command, only process
	// teardown (Close) should.
	_ = ctx
	cmd := exec.Command(s.shellPath)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("starting pty: %w", err)
	}

	marker, err := randomMarker()
	if err != nil {
		ptmx.Close()
		_ = cmd.Process.Kill()
		return fmt.Errorf("generating end-marker: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.ptmx = ptmx
	s.marker = marker
	s.alive = true
	s.mu.Unlock()

	// stty -echo disables PTY echo so a submitted command's own line is
	// never read back as output (spec.md §4.1 completion protocol): without
	// it, the line discipline echoes "command; echo '<marker>'" before the
	// command runs, and readUntilMarker matches the marker inside that echo
	// instead of the real output.
	tamer := "export TERM=dumb; export LC_ALL=C; export PS1=''; export PS2=''; " +
		"export PROMPT_COMMAND=''; set +o history; HISTFILE=/dev/null; unset HISTFILE; stty -echo\n"
	if _, err := ptmx.Write([]byte(tamer)); err != nil {
		return fmt.Errorf("taming shell: %w", err)
	}

	// Drain the initial banner/echo; best-effort, short deadline.
	s.drain(500 * time.Millisecond)

	s.logger.Info("shell session started", "shell", s.shellPath)
	return nil
}

func randomMarker() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "<<::CMD_DONE_" + hex.EncodeToString(buf) + "::>>", nil
}

// drain reads whatever is immediately available, up to deadline, and
// discards it. Used only at startup to eat the shell's banner.
func (s *Session) drain(deadline time.Duration) {
	s.mu.Lock()
	ptmx := s.ptmx
	s.mu.Unlock()
	if ptmx == nil {
		return
	}
	_ = ptmx.SetReadDeadline(time.Now().Add(deadline))
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	_ = ptmx.SetReadDeadline(time.Time{})
}

// IsAlive reports whether the underlying shell process is still running.
// A session whose PTY has reached EOF, or that was closed, is not alive.
func (s *Session) IsAlive() bool {
	s.mu.Lock()
	cmd := s.cmd
	alive := s.alive
	s.mu.Unlock()
	if !alive || cmd == nil || cmd.Process == nil {
		return false
	}
	// Signal 0 performs no action but reports whether the process exists.
	err := cmd.Process.Signal(syscall.Signal(0))
	return err == nil
}

// Run submits one command, waits for completion (via the end-marker),
// answers interactive sub-prompts via handlers, and returns sanitized
// output. Run enforces timeout and restarts a dead shell transparently
// before submitting (per Design Note (c): a command might itself kill the
// shell, e.g. `exec bash`).
func (s *Session) Run(ctx context.Context, command string, timeout time.Duration, handlers []PromptHandler, emit EmitFunc) (string, error) {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	if !s.IsAlive() {
		s.logger.Warn("shell session found dead, restarting")
		if err := s.start(ctx); err != nil {
			return "", fmt.Errorf("restarting dead session: %w", err)
		}
	}

	s.mu.Lock()
	ptmx := s.ptmx
	marker := s.marker
	s.mu.Unlock()

	line := fmt.Sprintf("%s; echo '%s'\n", command, marker)
	if _, err := ptmx.Write([]byte(line)); err != nil {
		return "", fmt.Errorf("writing command: %w", err)
	}

	raw, err := s.readUntilMarker(ptmx, marker, timeout, handlers, emit)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.mu.Lock()
			s.alive = false
			s.mu.Unlock()
			return "", ErrDead
		}
		return "", err
	}

	return sanitize(raw, command, marker), nil
}

// readUntilMarker reads from the PTY in small chunks, matching each chunk
// against interactive-prompt patterns (first-match-wins, unlimited
// repeats), the end-marker, and the deadline.
func (s *Session) readUntilMarker(ptmx *os.File, marker string, timeout time.Duration, handlers []PromptHandler, emit EmitFunc) (string, error) {
	deadline := time.Now().Add(timeout)
	var buf strings.Builder
	var unemitted strings.Builder
	chunk := make([]byte, 4096)

	for {
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}

		readDeadline := pollInterval
		if remaining := time.Until(deadline); remaining < readDeadline {
			readDeadline = remaining
		}
		_ = ptmx.SetReadDeadline(time.Now().Add(readDeadline))

		n, err := ptmx.Read(chunk)
		if n > 0 {
			text := string(chunk[:n])
			buf.WriteString(text)
			unemitted.WriteString(text)

			if idx := strings.Index(buf.String(), marker); idx >= 0 {
				return buf.String()[:idx], nil
			}

			if handled := s.tryHandlers(ptmx, unemitted.String(), handlers, emit); handled {
				unemitted.Reset()
			}
		}

		if err != nil {
			if isTimeoutErr(err) {
				continue // poll window elapsed, re-check overall deadline
			}
			if errors.Is(err, io.EOF) {
				return buf.String(), io.EOF
			}
			return "", err
		}
	}
}

// tryHandlers checks the unemitted tail against every handler pattern
// (first match wins), emits the intervening text, writes the response,
// and reports whether a handler fired.
func (s *Session) tryHandlers(ptmx *os.File, tail string, handlers []PromptHandler, emit EmitFunc) bool {
	for _, h := range handlers {
		if h.Pattern.MatchString(tail) {
			if emit != nil {
				emit("terminal", tail)
			}
			_, _ = ptmx.Write([]byte(h.Response + "\n"))
			return true
		}
	}
	return false
}

func isTimeoutErr(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// Close terminates the underlying shell process and releases the PTY.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
	if s.ptmx != nil {
		_ = s.ptmx.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return nil
}
