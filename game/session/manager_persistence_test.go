package session

import (
	"context"
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/dispatch"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

func TestManagerWithPersistence(t *testing.T) {
	files, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	badgerStore, err := OpenBadgerPersistence("", nil)
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	defer badgerStore.Close()

	stores := []struct {
		name        string
		persistence SessionPersistence
	}{
		{"file", files},
		{"badger", badgerStore},
	}

	for _, store := range stores {
		t.Run(store.name, func(t *testing.T) {
			testManagerWithPersistence(t, store.persistence)
		})
	}
}

func testManagerWithPersistence(t *testing.T, persistence SessionPersistence) {
	ctx := context.Background()
	manager := newTestManager(t, persistence)

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", "test", createTestConfig())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists(session.ID) {
			t.Error("Session should be auto-saved on creation")
		}
		loaded, err := persistence.Load(session.ID)
		if err != nil {
			t.Fatalf("Failed to load auto-saved session: %v", err)
		}
		if loaded.ID != session.ID || loaded.ConfigName != "test" {
			t.Errorf("Unexpected persisted session %s/%s", loaded.ID, loaded.ConfigName)
		}
	})

	t.Run("Save Captures Commands", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		state, _ := session.View(ctx, board.Player2)
		at, o := findInsertion(t, state)
		if _, err := session.Execute(ctx, board.Player2, dispatch.Command{Kind: dispatch.InsertTile, Location: at, Orientation: o}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if err := manager.Save(ctx, "auto1"); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.GameState.Phase != engine.PhaseMove {
			t.Errorf("Expected persisted phase %s, got %s", engine.PhaseMove, loaded.GameState.Phase)
		}
		if loaded.GameState.TotalMoves != 1 {
			t.Errorf("Expected 1 persisted move, got %d", loaded.GameState.TotalMoves)
		}
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		// A second manager has nothing in memory
		manager2 := newTestManager(t, persistence)

		session, err := manager2.Get("AUTO1")
		if err != nil {
			t.Fatalf("Failed to get session from persistence: %v", err)
		}
		if session.ID != "auto1" {
			t.Errorf("Expected ID auto1, got %s", session.ID)
		}

		original, _ := manager.Get("auto1")
		want, _ := original.Snapshot(ctx)
		got, err := session.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Restored session has no running dispatcher: %v", err)
		}
		wantGrid, _ := board.Restore(want.Board, want.Spare)
		gotGrid, _ := board.Restore(got.Board, got.Spare)
		if !wantGrid.Equal(gotGrid) {
			t.Error("Restored board differs from the saved one")
		}
		if got.Phase != want.Phase || got.CurrentPlayer != want.CurrentPlayer {
			t.Errorf("Restored turn differs: %s/%s vs %s/%s", got.CurrentPlayer, got.Phase, want.CurrentPlayer, want.Phase)
		}

		again, _ := manager2.Get("auto1")
		if again != session {
			t.Error("Session should be cached in memory after loading from persistence")
		}
	})

	t.Run("Load Persisted Sessions", func(t *testing.T) {
		if _, err := manager.Create("auto2", "test", createTestConfig()); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		manager3 := newTestManager(t, persistence)
		if err := manager3.LoadPersistedSessions(); err != nil {
			t.Fatalf("Failed to load persisted sessions: %v", err)
		}
		if manager3.Count() != 2 {
			t.Errorf("Expected 2 sessions loaded, got %d", manager3.Count())
		}
	})

	t.Run("Delete Removes Persisted Copy", func(t *testing.T) {
		if err := manager.Delete("auto2"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists("auto2") {
			t.Error("Session should be removed from persistence")
		}
	})

	t.Run("Cleanup Keeps Persisted Copy", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.SetLastAccessedAt(session.CreatedAt.AddDate(-1, 0, 0))
		if removed := manager.CleanupExpiredSessions(1); removed == 0 {
			t.Fatal("Expected the session to expire")
		}
		if !persistence.Exists("auto1") {
			t.Error("Expired sessions stay in persistence")
		}
		if _, err := manager.Get("auto1"); err != nil {
			t.Errorf("Expected expired session to reload, got %v", err)
		}
	})

	t.Run("Create Keeps Unloaded Session", func(t *testing.T) {
		if err := manager.DeleteFromMemory("auto1"); err != nil {
			t.Fatalf("Failed to unload session: %v", err)
		}
		if _, err := manager.Create("AUTO1", "test", createTestConfig()); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.GameState.TotalMoves != 1 {
			t.Errorf("Persisted session was overwritten: %d moves", loaded.GameState.TotalMoves)
		}
	})

	t.Run("Missing Session", func(t *testing.T) {
		if _, err := manager.Get("never"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}
