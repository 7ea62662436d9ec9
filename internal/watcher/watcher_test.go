package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/project/src/Student.java", true},
		{"/project/src/STUDENT.JAVA", true},
		{"/project/src/notes.txt", false},
		{"/project/src/Student.java.swp", false},
		{"/project/README.md", false},
	}
	for _, tt := range tests {
		if got := relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExcludedDirs(t *testing.T) {
	w := NewWatcher(Config{ExcludeDirs: []string{"target", ".git"}})

	if !w.excluded("/project/target") {
		t.Error("expected target to be excluded")
	}
	if !w.excluded("/project/.git") {
		t.Error("expected .git to be excluded")
	}
	if w.excluded("/project/src") {
		t.Error("expected src to NOT be excluded")
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		in    fsnotify.Op
		want  EventOp
		valid bool
	}{
		{fsnotify.Create, Create, true},
		{fsnotify.Write, Write, true},
		{fsnotify.Remove, Remove, true},
		{fsnotify.Rename, Rename, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, tt := range tests {
		got, valid := convertOp(tt.in)
		if valid != tt.valid {
			t.Errorf("convertOp(%v) valid = %v, want %v", tt.in, valid, tt.valid)
			continue
		}
		if valid && got != tt.want {
			t.Errorf("convertOp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEventDebouncing(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Student.java")
	if err := os.WriteFile(testFile, []byte("class Student {}"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(Config{
		Paths:    []string{tmpDir},
		Debounce: 100 * time.Millisecond,
	})
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Give the watcher time to initialize.
	time.Sleep(200 * time.Millisecond)

	// Write to the file multiple times in rapid succession.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(testFile, []byte("class Student { // "+string(rune('0'+i))+"\n}"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for the debounce window to pass, then collect.
	time.Sleep(200 * time.Millisecond)

	var collected []Event
	timeout := time.After(500 * time.Millisecond)
loop:
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				break loop
			}
			collected = append(collected, evt)
		case <-timeout:
			break loop
		}
	}

	if len(collected) != 1 {
		t.Errorf("collected %d events, want 1 (debounced)", len(collected))
	}
	if len(collected) > 0 && collected[0].Path != testFile {
		t.Errorf("event path = %q, want %q", collected[0].Path, testFile)
	}
}

func TestNonJavaChangesIgnored(t *testing.T) {
	tmpDir := t.TempDir()

	w := NewWatcher(Config{
		Paths:    []string{tmpDir},
		Debounce: 50 * time.Millisecond,
	})
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-events:
		t.Errorf("received event for non-Java file: %+v", evt)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEventOpString(t *testing.T) {
	tests := []struct {
		op   EventOp
		want string
	}{
		{Create, "Create"},
		{Write, "Write"},
		{Remove, "Remove"},
		{Rename, "Rename"},
		{EventOp(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
