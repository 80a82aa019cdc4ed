package papermap

import (
	"context"
	"testing"

	"github.com/zotatlas/zotatlas/internal/entry"
)

type fakeTagWriter struct {
	added map[string][]string
	set   map[string][]string
}

func newFakeTagWriter() *fakeTagWriter {
	return &fakeTagWriter{added: map[string][]string{}, set: map[string][]string{}}
}

func (f *fakeTagWriter) AddTags(_ context.Context, key string, tags []string) error {
	f.added[key] = append(f.added[key], tags...)
	return nil
}

func (f *fakeTagWriter) SetTags(_ context.Context, key string, tags []string) error {
	f.set[key] = tags
	return nil
}

func taggedDoc() *entry.Document {
	return &entry.Document{
		Papers: []entry.Entry{
			{ID: 0, ZoteroKey: "K0", ClusterLabel: "haptics, vr, presence", Tags: "hci; cluster:stale"},
			{ID: 1, ZoteroKey: "K1", ClusterLabel: "accessibility, reader"},
			{ID: 2, ClusterLabel: "orphan"}, // no Zotero key
		},
	}
}

func TestSyncTagsAdd(t *testing.T) {
	w := newFakeTagWriter()
	result, err := SyncTags(context.Background(), w, taggedDoc(), TagSyncOptions{}, nil)
	if err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	if result.Updated != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if got := w.added["K0"]; len(got) != 1 || got[0] != "cluster:haptics, vr, presence" {
		t.Errorf("added[K0] = %v", got)
	}
	if len(w.set) != 0 {
		t.Errorf("add mode issued SetTags: %v", w.set)
	}
}

func TestSyncTagsRemoveReplacesStale(t *testing.T) {
	w := newFakeTagWriter()
	_, err := SyncTags(context.Background(), w, taggedDoc(), TagSyncOptions{Remove: true}, nil)
	if err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	got := w.set["K0"]
	want := []string{"hci", "cluster:haptics, vr, presence"}
	if len(got) != len(want) {
		t.Fatalf("set[K0] = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("set[K0][%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSyncTagsDryRun(t *testing.T) {
	w := newFakeTagWriter()
	result, err := SyncTags(context.Background(), w, taggedDoc(), TagSyncOptions{DryRun: true}, nil)
	if err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	if len(w.added) != 0 || len(w.set) != 0 {
		t.Error("dry run issued writes")
	}
	if len(result.Planned) != 2 || result.Updated != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestSyncTagsCustomPrefix(t *testing.T) {
	w := newFakeTagWriter()
	doc := taggedDoc()
	_, err := SyncTags(context.Background(), w, doc, TagSyncOptions{Prefix: "map/"}, nil)
	if err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	if got := w.added["K1"]; len(got) != 1 || got[0] != "map/accessibility, reader" {
		t.Errorf("added[K1] = %v", got)
	}
}
