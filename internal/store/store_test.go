package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shjno191/graviti/internal/flowgraph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sampleGraph() *flowgraph.CallGraph {
	return &flowgraph.CallGraph{
		Nodes: map[string]flowgraph.MethodNode{
			"study": {Name: "study", Modifiers: []string{"public"}, ReturnType: "void"},
		},
		Calls: map[string][]string{"study": {"homework"}},
		Flows: map[string][]flowgraph.FlowStep{
			"study": {{Kind: flowgraph.StepCall, Name: "homework"}},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	source := []byte("class Student {}")
	hash := Hash(source)

	if err := s.Put("Student.java", hash, sampleGraph()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("Student.java", hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	node, ok := got.Nodes["study"]
	if !ok {
		t.Fatalf("cached graph missing node study: %+v", got.Nodes)
	}
	if node.ReturnType != "void" {
		t.Errorf("node.ReturnType = %q, want void", node.ReturnType)
	}
	if len(got.Calls["study"]) != 1 || got.Calls["study"][0] != "homework" {
		t.Errorf("Calls[study] = %v, want [homework]", got.Calls["study"])
	}
	if len(got.Flows["study"]) != 1 || got.Flows["study"][0].Kind != flowgraph.StepCall {
		t.Errorf("Flows[study] = %v, want one call step", got.Flows["study"])
	}
}

func TestStoreMissingFile(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("Unknown.java", Hash([]byte("x")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on unknown file: err = %v, want ErrNotFound", err)
	}
}

func TestStoreHashMismatchIsMiss(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("Student.java", Hash([]byte("v1")), sampleGraph()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := s.Get("Student.java", Hash([]byte("v2")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get with stale hash: err = %v, want ErrNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)
	hash := Hash([]byte("v1"))

	if err := s.Put("Student.java", hash, sampleGraph()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("Student.java"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("Student.java", hash); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestStoreStatsAndFiles(t *testing.T) {
	s := openTestStore(t)

	for _, file := range []string{"A.java", "B.java"} {
		if err := s.Put(file, Hash([]byte(file)), sampleGraph()); err != nil {
			t.Fatalf("Put %s: %v", file, err)
		}
	}

	files, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if files != 2 {
		t.Errorf("Stats = %d files, want 2", files)
	}

	list, err := s.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(list) != 2 || list[0] != "A.java" || list[1] != "B.java" {
		t.Errorf("Files = %v, want [A.java B.java]", list)
	}
}

func TestHashIsStable(t *testing.T) {
	a := Hash([]byte("class A {}"))
	b := Hash([]byte("class A {}"))
	c := Hash([]byte("class B {}"))
	if a != b {
		t.Errorf("same content hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different content hashed identically: %s", a)
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
