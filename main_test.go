package main

import (
	"os"
	"testing"

	"keel/cmd"
)

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func TestVersion(t *testing.T) {
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}

	cmd.SetVersion(version)
	if cmd.GetVersion() != "dev" {
		t.Errorf("Expected command version to be 'dev', got %s", cmd.GetVersion())
	}
}
