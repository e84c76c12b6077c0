package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/phone"
	"github.com/propertystewards/steward/internal/store"
	"github.com/spf13/cobra"
)

func newInspectorHarness(t *testing.T) (*store.Store, *cobra.Command, *bytes.Buffer) {
	t.Helper()
	gdb := openSQLite(t)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st, err := store.New(store.Opts{DB: gdb})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	return st, cmd, buf
}

func TestRunInspectorAdd_NormalizesPhone(t *testing.T) {
	st, cmd, buf := newInspectorHarness(t)

	if err := runInspectorAdd(cmd, st, " Alice Tan ", "+65 9876-5432", "alice@example.com"); err != nil {
		t.Fatalf("runInspectorAdd: %v", err)
	}
	if !strings.Contains(buf.String(), "Alice Tan (+6598765432)") {
		t.Errorf("output = %q", buf.String())
	}

	insp, err := st.InspectorByPhone(context.Background(), "+6598765432")
	if err != nil {
		t.Fatalf("InspectorByPhone: %v", err)
	}
	if insp.Name != "Alice Tan" || insp.Email != "alice@example.com" || !insp.Active {
		t.Errorf("inspector = %+v", insp)
	}
}

func TestRunInspectorAdd_Duplicate(t *testing.T) {
	st, cmd, _ := newInspectorHarness(t)

	if err := runInspectorAdd(cmd, st, "Alice", "+6598765432", ""); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := runInspectorAdd(cmd, st, "Alice again", "6598765432", "")
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRunInspectorAdd_InvalidPhone(t *testing.T) {
	st, cmd, _ := newInspectorHarness(t)

	err := runInspectorAdd(cmd, st, "Alice", "12345", "")
	if !errors.Is(err, phone.ErrInvalid) {
		t.Errorf("err = %v, want phone.ErrInvalid", err)
	}
}

func TestRunInspectorAdd_BlankName(t *testing.T) {
	st, cmd, _ := newInspectorHarness(t)

	if err := runInspectorAdd(cmd, st, "   ", "+6598765432", ""); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestRunInspectorList(t *testing.T) {
	st, cmd, buf := newInspectorHarness(t)

	if err := runInspectorList(cmd, st); err != nil {
		t.Fatalf("runInspectorList (empty): %v", err)
	}
	if !strings.Contains(buf.String(), "No inspectors registered.") {
		t.Errorf("empty output = %q", buf.String())
	}
	buf.Reset()

	ctx := context.Background()
	st.CreateInspector(ctx, "Bob", "+6511112222", "")
	st.CreateInspector(ctx, "Alice", "+6533334444", "alice@example.com")

	if err := runInspectorList(cmd, st); err != nil {
		t.Fatalf("runInspectorList: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3 (header + 2):\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Alice") || !strings.Contains(lines[2], "Bob") {
		t.Errorf("rows not ordered by name:\n%s", buf.String())
	}
}
