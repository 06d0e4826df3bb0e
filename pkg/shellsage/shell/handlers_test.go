package shell

import "testing"

func TestHandlersForCommandPackageManager(t *testing.T) {
	handlers := HandlersForCommand("apt-get install -y nginx")
	if len(handlers) == 0 {
		t.Fatal("expected package-manager handlers")
	}
	matched := false
	for _, h := range handlers {
		if h.Pattern.MatchString("Do you want to continue? [Y/n]") {
			matched = true
			if h.Response != "y" {
				t.Fatalf("expected response 'y', got %q", h.Response)
			}
		}
	}
	if !matched {
		t.Fatal("expected a handler to match the continue prompt")
	}
}

func TestHandlersForCommandSSH(t *testing.T) {
	handlers := HandlersForCommand("ssh user@example.com")
	found := false
	for _, h := range handlers {
		if h.Pattern.MatchString("Are you sure you want to continue connecting (yes/no)?") {
			found = true
			if h.Response != "yes" {
				t.Fatalf("expected 'yes', got %q", h.Response)
			}
		}
	}
	if !found {
		t.Fatal("expected ssh host-key handler to match")
	}
}

func TestHandlersForCommandNoMatchIsEmpty(t *testing.T) {
	if handlers := HandlersForCommand("uptime"); len(handlers) != 0 {
		t.Fatalf("expected no handlers for plain command, got %d", len(handlers))
	}
}
