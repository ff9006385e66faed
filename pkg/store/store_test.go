package store

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

func testDoc() *graph.Document {
	return &graph.Document{
		Nodes: []*graph.Node{{ID: "a", Name: "A"}, {ID: "g", Name: "G", View: graph.ViewReduced}, {ID: "b", Name: "B"}},
		Edges: []*graph.Edge{{ID: "e1", From: "a", To: "b"}},
		Compound: &graph.Compound{
			Nodes:    []string{"a"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b"}}},
		},
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{"memory": NewMemoryStore(), "file": fs}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := NewRecord(testDoc(), time.Hour)
			rec.LOD = 1
			if err := st.Put(ctx, rec); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := st.Get(ctx, rec.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.LOD != 1 || len(got.Document.Nodes) != 3 {
				t.Errorf("got %+v", got)
			}
			if v := got.Document.Nodes[1].View; v != graph.ViewReduced {
				t.Errorf("group view = %q, want reduced", v)
			}
			if got.Document.Compound.Children[0].Group != "g" {
				t.Errorf("compound lost: %+v", got.Document.Compound)
			}

			// Changing the record after Put does not change the stored copy.
			rec.Document.Nodes[0].Name = "changed"
			if again, _ := st.Get(ctx, rec.ID); again.Document.Nodes[0].Name != "A" {
				t.Errorf("stored name = %q, want A", again.Document.Nodes[0].Name)
			}

			if err := st.Delete(ctx, rec.ID); err != nil {
				t.Fatal(err)
			}
			if _, err := st.Get(ctx, rec.ID); !stderrors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}
			if err := st.Delete(ctx, rec.ID); err != nil {
				t.Errorf("second Delete() error = %v", err)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			live := NewRecord(testDoc(), time.Hour)
			dead := NewRecord(testDoc(), time.Hour)
			dead.ExpiresAt = time.Now().Add(-time.Minute)
			gone := NewRecord(testDoc(), time.Hour)
			gone.ExpiresAt = time.Now().Add(-time.Minute)
			for _, r := range []*Record{live, dead, gone} {
				if err := st.Put(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			if _, err := st.Get(ctx, dead.ID); !stderrors.Is(err, ErrNotFound) {
				t.Errorf("expired Get() error = %v, want ErrNotFound", err)
			}
			// dead was dropped on read; only gone is left to clean.
			n, err := st.Cleanup(ctx)
			if err != nil || n != 1 {
				t.Errorf("Cleanup() = %d, %v, want 1", n, err)
			}
			if _, err := st.Get(ctx, live.ID); err != nil {
				t.Errorf("live record lost: %v", err)
			}
		})
	}
}

func TestStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../escape", "a/b"} {
				rec := NewRecord(testDoc(), time.Hour)
				rec.ID = id
				if err := st.Put(ctx, rec); !errors.Is(err, errors.ErrCodeInvalidPath) {
					t.Errorf("Put(%q) error = %v, want %s", id, err, errors.ErrCodeInvalidPath)
				}
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecord(testDoc(), time.Hour)
	if err := st.Put(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, rec.ID+".json")); err != nil {
		t.Errorf("record file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, rec.ID+".json.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestRecordTouch(t *testing.T) {
	rec := NewRecord(testDoc(), time.Minute)
	before := rec.ExpiresAt
	rec.Touch(time.Hour)
	if !rec.ExpiresAt.After(before) || rec.IsExpired() {
		t.Errorf("Touch() expiry = %v, before %v", rec.ExpiresAt, before)
	}
	if len(rec.ID) != 36 {
		t.Errorf("id %q is not a uuid", rec.ID)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cfg     config.Server
		want    string
		wantErr bool
	}{
		{cfg: config.Server{Store: "memory"}, want: "*store.MemoryStore"},
		{cfg: config.Server{Store: "file", StoreDir: t.TempDir()}, want: "*store.FileStore"},
		{cfg: config.Server{Store: "mongo"}, wantErr: true},
		{cfg: config.Server{Store: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Store, func(t *testing.T) {
			st, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer st.Close()
			if got := typeName(st); got != tt.want {
				t.Errorf("Open() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *MemoryStore:
		return "*store.MemoryStore"
	case *FileStore:
		return "*store.FileStore"
	case *MongoStore:
		return "*store.MongoStore"
	}
	return "?"
}
