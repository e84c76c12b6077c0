package session

import (
	"context"
	"testing"
	"time"

	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func setup(t *testing.T, opts Opts) (*Manager, *store.Store, *fakeClock) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	clock := &fakeClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	st, err := store.New(store.Opts{DB: gdb, Now: clock.now})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	opts.Store = st
	opts.Now = clock.now
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, st, clock
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(Opts{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestNew_Defaults(t *testing.T) {
	m, _, _ := setup(t, Opts{})
	if m.window != DefaultWindow {
		t.Errorf("window = %v, want %v", m.window, DefaultWindow)
	}
	if m.historyTurns != DefaultHistoryTurns {
		t.Errorf("historyTurns = %d, want %d", m.historyTurns, DefaultHistoryTurns)
	}
}

func TestResolve_CreatesThenReuses(t *testing.T) {
	m, st, clock := setup(t, Opts{})
	ctx := context.Background()

	first, err := m.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !first.IsActive {
		t.Error("new session should be active")
	}
	if !first.CreatedAt.Equal(first.LastInteraction) {
		t.Errorf("CreatedAt %v != LastInteraction %v", first.CreatedAt, first.LastInteraction)
	}

	clock.t = clock.t.Add(23 * time.Hour)
	second, err := m.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Resolve = %d, want reused %d", second.ID, first.ID)
	}

	var count int64
	st.DB().Model(&models.ChatSession{}).Where("inspector_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func TestResolve_WindowLapsed(t *testing.T) {
	m, _, clock := setup(t, Opts{})
	ctx := context.Background()

	first, _ := m.Resolve(ctx, 1)
	clock.t = clock.t.Add(25 * time.Hour)
	second, err := m.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new session after the window lapsed")
	}
}

func TestResolve_CustomWindow(t *testing.T) {
	m, _, clock := setup(t, Opts{Window: time.Hour})
	ctx := context.Background()

	first, _ := m.Resolve(ctx, 1)
	clock.t = clock.t.Add(2 * time.Hour)
	second, _ := m.Resolve(ctx, 1)
	if second.ID == first.ID {
		t.Error("expected a new session with a 1h window")
	}
}

func TestResolve_PerInspector(t *testing.T) {
	m, _, _ := setup(t, Opts{})
	ctx := context.Background()

	a, _ := m.Resolve(ctx, 1)
	b, _ := m.Resolve(ctx, 2)
	if a.ID == b.ID {
		t.Error("inspectors must not share a session")
	}
}

func TestAppend_BumpsLastInteraction(t *testing.T) {
	m, st, clock := setup(t, Opts{})
	ctx := context.Background()
	sess, _ := m.Resolve(ctx, 1)

	clock.t = clock.t.Add(5 * time.Minute)
	if err := m.Append(ctx, sess.ID, models.SenderUser, "hello", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var got models.ChatSession
	st.DB().First(&got, sess.ID)
	if !got.LastInteraction.Equal(clock.t) {
		t.Errorf("LastInteraction = %v, want %v", got.LastInteraction, clock.t)
	}
}

func TestAppend_MissingSessionKeepsMessage(t *testing.T) {
	m, st, _ := setup(t, Opts{})
	ctx := context.Background()

	err := m.Append(ctx, 777, models.SenderUser, "orphan", nil)
	if err == nil {
		t.Fatal("expected error when the session row is missing")
	}

	var count int64
	st.DB().Model(&models.ChatMessage{}).Where("session_id = ?", 777).Count(&count)
	if count != 1 {
		t.Errorf("messages = %d, want 1 (insert is not rolled back)", count)
	}
}

func TestHistory_PreservesAppendOrder(t *testing.T) {
	m, _, clock := setup(t, Opts{})
	ctx := context.Background()
	sess, _ := m.Resolve(ctx, 1)

	// Clock runs backwards; order must still follow append order.
	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		if err := m.Append(ctx, sess.ID, models.SenderUser, c, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
		clock.t = clock.t.Add(-time.Minute)
	}

	turns, err := m.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != len(contents) {
		t.Fatalf("len = %d, want %d", len(turns), len(contents))
	}
	for i, c := range contents {
		if turns[i].Content != c {
			t.Errorf("turns[%d] = %q, want %q", i, turns[i].Content, c)
		}
	}
}

func TestHistory_Windowed(t *testing.T) {
	m, _, _ := setup(t, Opts{HistoryTurns: 2})
	ctx := context.Background()
	sess, _ := m.Resolve(ctx, 1)

	for _, c := range []string{"a", "b", "c", "d"} {
		m.Append(ctx, sess.ID, models.SenderUser, c, nil)
	}

	turns, _ := m.History(ctx, sess.ID)
	if len(turns) != 2 || turns[0].Content != "c" || turns[1].Content != "d" {
		t.Errorf("turns = %+v, want [c d]", turns)
	}
}

func TestHistory_Unbounded(t *testing.T) {
	m, _, _ := setup(t, Opts{HistoryTurns: -1})
	ctx := context.Background()
	sess, _ := m.Resolve(ctx, 1)

	for i := 0; i < 60; i++ {
		m.Append(ctx, sess.ID, models.SenderUser, "x", nil)
	}

	turns, _ := m.History(ctx, sess.ID)
	if len(turns) != 60 {
		t.Errorf("len = %d, want 60", len(turns))
	}
}
