package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/timeline"
)

type captureEmitter struct {
	payloads []timeline.Payload
}

func (c *captureEmitter) Add(p timeline.Payload) (timeline.Event, bool) {
	c.payloads = append(c.payloads, p)
	return timeline.NewEvent(p), true
}

func writeItem(path, content string) mutation.Item {
	return mutation.Item{
		Type:   mutation.TypeWriteFile,
		Target: path,
		SourceToolCall: &timeline.ToolCall{
			ID:        "call_1",
			Name:      "write_file",
			Arguments: map[string]any{"path": path, "content": content},
		},
	}
}

func TestExecutorWriteFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	exec := NewExecutor(root)

	result := exec.Execute(context.Background(), writeItem("sub/hello.txt", "hi\n"))
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	content, err := os.ReadFile(filepath.Join(root, "sub", "hello.txt"))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(content) != "hi\n" {
		t.Fatalf("unexpected content: %q", string(content))
	}
	if result.Duration <= 0 {
		t.Fatal("expected a measured duration")
	}
}

func TestExecutorWriteEmitsDiff(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	emitter := &captureEmitter{}
	exec := NewExecutor(root, WithDiffEmitter(emitter))

	result := exec.Execute(context.Background(), writeItem("a.txt", "one\nthree\n"))
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	if len(emitter.payloads) != 1 {
		t.Fatalf("expected 1 diff preview, got %d payloads", len(emitter.payloads))
	}
	preview, ok := emitter.payloads[0].(timeline.DiffPreview)
	if !ok {
		t.Fatalf("expected DiffPreview payload, got %T", emitter.payloads[0])
	}
	if preview.Path != "a.txt" || preview.Added != 1 || preview.Removed != 1 {
		t.Fatalf("unexpected preview: %+v", preview)
	}
	if !strings.Contains(preview.Diff, "-two") || !strings.Contains(preview.Diff, "+three") {
		t.Fatalf("diff missing changed lines: %q", preview.Diff)
	}
}

func TestExecutorPatchFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	exec := NewExecutor(root)
	item := mutation.Item{
		Type:   mutation.TypePatchFile,
		Target: "main.go",
		SourceToolCall: &timeline.ToolCall{
			ID:   "call_2",
			Name: "patch_file",
			Arguments: map[string]any{
				"path": "main.go",
				"old":  "func main() {}",
				"new":  "func main() {\n\tprintln(\"ok\")\n}",
			},
		},
	}
	result := exec.Execute(context.Background(), item)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	content, err := os.ReadFile(filepath.Join(root, "main.go"))
	if err != nil {
		t.Fatalf("read patched file: %v", err)
	}
	if !strings.Contains(string(content), `println("ok")`) {
		t.Fatalf("patch not applied: %q", string(content))
	}
}

func TestExecutorPatchMissingTarget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("content\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	exec := NewExecutor(root)
	item := mutation.Item{
		Type:   mutation.TypePatchFile,
		Target: "a.txt",
		SourceToolCall: &timeline.ToolCall{
			Arguments: map[string]any{"old": "not there", "new": "x"},
		},
	}
	result := exec.Execute(context.Background(), item)
	if result.Success {
		t.Fatal("expected failure for missing patch target")
	}
	if !strings.Contains(result.Error, "patch target not found") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestExecutorRejectsEscapingPath(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(t.TempDir())
	result := exec.Execute(context.Background(), writeItem("../outside.txt", "nope"))
	if result.Success {
		t.Fatal("expected failure for path outside workspace")
	}
	if !strings.Contains(result.Error, "escapes workspace root") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestExecutorRunCommand(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(t.TempDir())
	item := mutation.Item{Type: mutation.TypeRunBash, Target: "echo hello"}
	result := exec.Execute(context.Background(), item)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	// login shells may prepend profile output, so only the last line is ours
	lines := strings.Split(result.Output, "\n")
	if got := lines[len(lines)-1]; got != "hello" {
		t.Fatalf("unexpected output: %q", result.Output)
	}
}

func TestExecutorCommandFailureCarriesOutput(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(t.TempDir())
	item := mutation.Item{Type: mutation.TypeRunBash, Target: "echo broken >&2; exit 3"}
	result := exec.Execute(context.Background(), item)
	if result.Success {
		t.Fatal("expected failure for non-zero exit")
	}
	if !strings.Contains(result.Error, "broken") {
		t.Fatalf("expected stderr in error, got %q", result.Error)
	}
}
