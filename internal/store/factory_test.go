package store

import (
	"testing"

	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
)

func TestNew_DefaultsToMemory(t *testing.T) {
	s, err := New(config.StoreConfig{}, logging.NewDevelopment())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Expected *MemoryStore, got %T", s)
	}
}

func TestNew_Badger(t *testing.T) {
	s, err := New(config.StoreConfig{Backend: "badger", DataDir: t.TempDir()}, logging.NewDevelopment())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, ok := s.(*BadgerStore); !ok {
		t.Errorf("Expected *BadgerStore, got %T", s)
	}
}

func TestNew_UnsupportedBackend(t *testing.T) {
	if _, err := New(config.StoreConfig{Backend: "cassandra"}, logging.NewDevelopment()); err == nil {
		t.Error("Expected error for unsupported backend")
	}
}
