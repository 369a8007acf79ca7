package cpu

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeSysfs monta uma árvore cpuN/online em disco. A cpu0 fica sem
// arquivo online, como nos kernels reais.
func fakeSysfs(t *testing.T, cpus int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < cpus; i++ {
		dir := filepath.Join(root, "cpu"+string(rune('0'+i)))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, "online"), []byte("0\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestSysfsPoolCountsCPUs(t *testing.T) {
	root := fakeSysfs(t, 4)

	p, err := NewSysfsPool(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Count() != 4 {
		t.Errorf("expected 4 CPUs, got %d", p.Count())
	}
}

func TestSysfsPoolEmptyRootFails(t *testing.T) {
	if _, err := NewSysfsPool(t.TempDir()); err == nil {
		t.Error("expected error with no CPUs")
	}
}

func TestSysfsPoolPrimaryAlwaysOnline(t *testing.T) {
	p, err := NewSysfsPool(fakeSysfs(t, 2))
	if err != nil {
		t.Fatal(err)
	}

	up, err := p.IsOnline(0)
	if err != nil || !up {
		t.Errorf("cpu0 without online file must read as online, up=%v err=%v", up, err)
	}
	if err := p.SetOnline(0, false); err == nil {
		t.Error("cpu0 must refuse to go offline")
	}
	if err := p.SetOnline(0, true); err != nil {
		t.Errorf("onlining cpu0 must be a no-op, got %v", err)
	}
}

func TestSysfsPoolSetAndReadOnline(t *testing.T) {
	p, err := NewSysfsPool(fakeSysfs(t, 3))
	if err != nil {
		t.Fatal(err)
	}

	if n := p.OnlineCount(); n != 1 {
		t.Fatalf("expected only cpu0 online, got %d", n)
	}

	if err := p.SetOnline(1, true); err != nil {
		t.Fatalf("failed to online cpu1: %v", err)
	}
	up, err := p.IsOnline(1)
	if err != nil || !up {
		t.Errorf("cpu1 should be online, up=%v err=%v", up, err)
	}
	if n := p.OnlineCount(); n != 2 {
		t.Errorf("expected 2 online, got %d", n)
	}

	if err := p.SetOnline(1, false); err != nil {
		t.Fatalf("failed to offline cpu1: %v", err)
	}
	if n := p.OnlineCount(); n != 1 {
		t.Errorf("expected 1 online, got %d", n)
	}
}

func TestSysfsPoolOutOfRange(t *testing.T) {
	p, err := NewSysfsPool(fakeSysfs(t, 2))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.IsOnline(5); err == nil {
		t.Error("expected range error on read")
	}
	if err := p.SetOnline(-1, true); err == nil {
		t.Error("expected range error on write")
	}
}
