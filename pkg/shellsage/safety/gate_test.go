package safety

import "testing"

func TestGateBlocksRecursiveRmOfRoot(t *testing.T) {
	g := NewGate()
	cases := []string{"rm -rf /", "rm -rf /etc", "rm -fr /bin/", "rm -r -f /usr", "rm -r /"}
	for _, c := range cases {
		blocked, reason := g.Block(c)
		if !blocked {
			t.Errorf("expected %q to be blocked, reason=%q", c, reason)
		}
	}
}

func TestGateAllowsRmOfLongerPath(t *testing.T) {
	g := NewGate()
	blocked, _ := g.Block("rm -rf /bin/foo")
	if blocked {
		t.Fatal("expected rm -rf /bin/foo to be allowed, it is not a critical root")
	}
}

func TestGateBlocksMkfsDevice(t *testing.T) {
	g := NewGate()
	blocked, _ := g.Block("mkfs.ext4 /dev/sda1")
	if !blocked {
		t.Fatal("expected mkfs against /dev/sda1 to be blocked")
	}
}

func TestGateBlocksDDToDevice(t *testing.T) {
	g := NewGate()
	blocked, _ := g.Block("dd if=/dev/zero of=/dev/sda bs=1M")
	if !blocked {
		t.Fatal("expected dd writing to /dev/sda to be blocked")
	}
}

func TestGateBlocksRedirectToDevice(t *testing.T) {
	g := NewGate()
	blocked, _ := g.Block("echo hello > /dev/sda")
	if !blocked {
		t.Fatal("expected redirection to /dev/sda to be blocked")
	}
}

func TestGateBlocksForkBomb(t *testing.T) {
	g := NewGate()
	blocked, _ := g.Block(":(){:|:&};:")
	if !blocked {
		t.Fatal("expected fork bomb to be blocked")
	}
}

func TestGateAllowsOrdinaryCommands(t *testing.T) {
	g := NewGate()
	for _, c := range []string{"uptime", "apt-get install -y htop", "ls -la /etc", "rm -rf ./build"} {
		if blocked, reason := g.Block(c); blocked {
			t.Errorf("expected %q to be allowed, got blocked: %s", c, reason)
		}
	}
}

func TestHasPlaceholder(t *testing.T) {
	if !HasPlaceholder("scp /path/to/file user@host:/tmp") {
		t.Fatal("expected placeholder detection")
	}
	if HasPlaceholder("scp ./file user@host:/tmp") {
		t.Fatal("did not expect placeholder detection")
	}
}

func TestIsPlannerCatastrophic(t *testing.T) {
	if !IsPlannerCatastrophic("rm -rf /") {
		t.Fatal("expected literal catastrophic match")
	}
	if IsPlannerCatastrophic("rm -rf ./tmp") {
		t.Fatal("did not expect catastrophic match")
	}
}
