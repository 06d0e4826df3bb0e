package agent

import "testing"

func TestDetectErrorPlainSuccessOutput(t *testing.T) {
	msg, failed := detectError(" 10:00:00 up 1 day,  2:34,  1 user,  load average: 0.10, 0.05, 0.01")
	if failed {
		t.Fatalf("expected no failure, got error=%q", msg)
	}
}

func TestDetectErrorCommandNotFound(t *testing.T) {
	msg, failed := detectError("bash: apt-get: command not found")
	if !failed {
		t.Fatal("expected failure to be detected")
	}
	if msg == "" {
		t.Fatal("expected a non-empty extracted error message")
	}
}

func TestDetectErrorSuccessTokenWins(t *testing.T) {
	_, failed := detectError("Package installed successfully\nerror: ignore this stray word in cleanup log")
	if failed {
		t.Fatal("expected success token to short-circuit failure detection")
	}
}

func TestExtractErrorMessagePrefersKeywordLine(t *testing.T) {
	out := "Reading package lists...\nE: Unable to locate package fooxyz\nDone."
	got := extractErrorMessage(out)
	if got != "E: Unable to locate package fooxyz" {
		t.Fatalf("expected the keyword line, got %q", got)
	}
}

func TestExtractErrorMessageFallsBackToLastLines(t *testing.T) {
	out := "line1\nline2\nline3\nline4"
	got := extractErrorMessage(out)
	if got != "line2\nline3\nline4" {
		t.Fatalf("expected last 3 lines, got %q", got)
	}
}
