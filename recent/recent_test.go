package recent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore_SaveDeduplicatesIgnoringCase(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	if _, err := store.Save("albury"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Save("ALBURY")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if diff := cmp.Diff([]string{"ALBURY"}, got); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestStore_MostRecentFirstAndCapped(t *testing.T) {
	store := NewStore(nil)
	for _, q := range []string{"a", "b", "c", "d", "e", "f", "g", "c"} {
		if _, err := store.Save(q); err != nil {
			t.Fatalf("save %q: %v", q, err)
		}
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"c", "g", "f", "e", "d", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestStore_IgnoresBlank(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.Save("  wodonga  "); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Save("   ")
	if err != nil {
		t.Fatalf("save blank: %v", err)
	}
	if diff := cmp.Diff([]string{"wodonga"}, got); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "desk.json")

	first := NewStore(NewFileStorage(path))
	for _, q := range []string{"albury", "lavington", "Albury"} {
		if _, err := first.Save(q); err != nil {
			t.Fatalf("save %q: %v", q, err)
		}
	}

	second := NewStore(NewFileStorage(path))
	got, err := second.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"Albury", "lavington"}, got); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	third := NewStore(NewFileStorage(path))
	got, err = third.List()
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history after clear, got %v", got)
	}
}

func TestStore_LoadRepairsStoredValue(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Set(Key, []byte(`["one","ONE","two","","three","four","five","six","seven"]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := NewStore(storage).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"one", "two", "three", "four", "five", "six"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestStore_CorruptValueIsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Set(Key, []byte(`{"not":"a list"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := NewStore(storage).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
}

func TestFileStorage_KeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.json")
	fs := NewFileStorage(path)

	if err := fs.Set("theme", []byte(`"dark"`)); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if _, err := NewStore(fs).Save("albury"); err != nil {
		t.Fatalf("save: %v", err)
	}

	v, ok, err := fs.Get("theme")
	if err != nil || !ok || string(v) != `"dark"` {
		t.Fatalf("expected theme to survive, got %q ok=%v err=%v", v, ok, err)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	if _, _, err := fs.Get(Key); err == nil {
		t.Fatal("expected decode error for corrupt file")
	}
}
