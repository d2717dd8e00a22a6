package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("listen_addr: 0.0.0.0:9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:9000", cfg.ListenAddr)
	}

	if cfg.TickRateHz != 60 {
		t.Errorf("TickRateHz = %v, want default 60", cfg.TickRateHz)
	}

	if cfg.RemoveNodePolicy != RemoveNodePolicyReject {
		t.Errorf("RemoveNodePolicy = %v, want reject default", cfg.RemoveNodePolicy)
	}
}

func TestRemoveNodePolicyToBt(t *testing.T) {
	if RemoveNodePolicyCascade.ToBt() != bt.RemoveNodePolicyCascade {
		t.Error("cascade did not map to bt.RemoveNodePolicyCascade")
	}

	if RemoveNodePolicyReject.ToBt() != bt.RemoveNodePolicyReject {
		t.Error("reject did not map to bt.RemoveNodePolicyReject")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error loading missing file")
	}
}
