package sampler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRunnable(t *testing.T) {
	v, err := parseRunnable("0.52 0.44 0.41 3/612 12345\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 3*LoadScale {
		t.Errorf("expected %d, got %d", 3*LoadScale, v)
	}
}

func TestParseRunnableMalformed(t *testing.T) {
	cases := []string{
		"",
		"0.52 0.44 0.41",
		"0.52 0.44 0.41 nodash 123",
		"0.52 0.44 0.41 x/612 123",
	}
	for _, c := range cases {
		if _, err := parseRunnable(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestProcStatSamplerReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadavg")
	if err := os.WriteFile(path, []byte("1.00 0.80 0.60 7/421 999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewProcStatSampler(path)
	v, err := s.Sample()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7*LoadScale {
		t.Errorf("expected %d, got %d", 7*LoadScale, v)
	}
}

func TestProcStatSamplerMissingFile(t *testing.T) {
	s := NewProcStatSampler(filepath.Join(t.TempDir(), "missing"))
	if _, err := s.Sample(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFakeSamplerRepeatsLastValue(t *testing.T) {
	s := NewFakeSampler(100, 200, 300)

	want := []uint64{100, 200, 300, 300, 300}
	for i, w := range want {
		v, err := s.Sample()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, v)
		}
	}

	s.Set(50)
	if v, _ := s.Sample(); v != 50 {
		t.Errorf("expected 50 after Set, got %d", v)
	}
}

func TestFakeSamplerEmpty(t *testing.T) {
	s := NewFakeSampler()
	if v, err := s.Sample(); err != nil || v != 0 {
		t.Errorf("empty sampler should return 0, got %d err=%v", v, err)
	}
}
