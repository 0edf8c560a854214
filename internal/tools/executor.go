// Package tools executes approved mutation plan items against the local
// workspace: file writes, targeted patches, and shell or git commands.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/timeline"
)

var (
	errMissingArgument = errors.New("required tool argument is missing")
	errPathEscapes     = errors.New("path escapes workspace root")
)

// Executor runs mutation plan items in a workspace directory. It satisfies
// the plan runner's executor contract and, when an emitter is attached,
// publishes diff previews for file-level changes.
type Executor struct {
	workingDir string
	emitter    mutation.EventEmitter
}

type ExecutorOption func(*Executor)

// WithDiffEmitter attaches an event emitter that receives a diff preview
// after every file write or patch.
func WithDiffEmitter(em mutation.EventEmitter) ExecutorOption {
	return func(e *Executor) { e.emitter = em }
}

func NewExecutor(workingDir string, opts ...ExecutorOption) *Executor {
	workingDir = strings.TrimSpace(workingDir)
	if workingDir == "" {
		workingDir = "."
	}
	e := &Executor{workingDir: workingDir}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one plan item and reports its outcome. It never panics and
// never returns an error through the result's success path: failures are
// carried in the result so the runner can decide whether to continue.
func (e *Executor) Execute(ctx context.Context, item mutation.Item) mutation.ItemResult {
	start := time.Now()
	result := mutation.ItemResult{Item: item}

	var output string
	var err error
	switch item.Type {
	case mutation.TypeWriteFile:
		output, err = e.writeFile(ctx, item)
	case mutation.TypePatchFile:
		output, err = e.patchFile(ctx, item)
	case mutation.TypeRunBash, mutation.TypeGitOp:
		output, err = e.runCommand(ctx, item)
	default:
		err = fmt.Errorf("unsupported item type %s", item.Type)
	}

	result.Duration = time.Since(start)
	result.Output = output
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}

func (e *Executor) writeFile(ctx context.Context, item mutation.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := stringArg(item, "content")
	if err != nil {
		return "", err
	}
	absPath, relPath, err := e.resolvePath(item)
	if err != nil {
		return "", err
	}

	var before string
	if existing, readErr := os.ReadFile(absPath); readErr == nil {
		before = string(existing)
	} else if !errors.Is(readErr, os.ErrNotExist) {
		return "", readErr
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		return "", err
	}
	e.emitDiff(relPath, before, content)
	return fmt.Sprintf("wrote %s", relPath), nil
}

func (e *Executor) patchFile(ctx context.Context, item mutation.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	oldText, err := stringArg(item, "old")
	if err != nil {
		return "", err
	}
	newText, err := stringArg(item, "new")
	if err != nil {
		return "", err
	}
	absPath, relPath, err := e.resolvePath(item)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	before := string(raw)
	if !strings.Contains(before, oldText) {
		return "", fmt.Errorf("patch target not found in %s", relPath)
	}
	after := strings.Replace(before, oldText, newText, 1)

	if err := os.WriteFile(absPath, []byte(after), 0o644); err != nil {
		return "", err
	}
	e.emitDiff(relPath, before, after)
	return fmt.Sprintf("patched %s", relPath), nil
}

func (e *Executor) runCommand(ctx context.Context, item mutation.Item) (string, error) {
	command := strings.TrimSpace(item.Target)
	if command == "" {
		return "", fmt.Errorf("%w: command", errMissingArgument)
	}

	cmd := exec.CommandContext(ctx, "bash", "-lc", command)
	cmd.Dir = e.workingDir
	if item.WorkingDir != "" {
		cmd.Dir = item.WorkingDir
	}
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, ctxErr
		}
		if output == "" {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", err, output)
	}
	return output, nil
}

func (e *Executor) emitDiff(relPath, before, after string) {
	if e.emitter == nil {
		return
	}
	diff, added, removed := UnifiedDiff(relPath, before, after)
	if added == 0 && removed == 0 {
		return
	}
	e.emitter.Add(timeline.DiffPreview{
		Path:    relPath,
		Added:   added,
		Removed: removed,
		Diff:    diff,
	})
}

// resolvePath maps the item target into the workspace and rejects paths
// that climb out of it.
func (e *Executor) resolvePath(item mutation.Item) (absPath string, relPath string, err error) {
	rootAbs, err := filepath.Abs(e.workingDir)
	if err != nil {
		return "", "", err
	}
	path := strings.TrimSpace(item.Target)
	if path == "" {
		return "", "", fmt.Errorf("%w: path", errMissingArgument)
	}

	var targetAbs string
	if filepath.IsAbs(path) {
		targetAbs = filepath.Clean(path)
	} else {
		targetAbs = filepath.Clean(filepath.Join(rootAbs, path))
	}

	relToRoot, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", "", err
	}
	relToRoot = filepath.Clean(relToRoot)
	if relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		return "", "", errPathEscapes
	}
	return targetAbs, filepath.ToSlash(relToRoot), nil
}

// stringArg pulls a required string out of the item's source tool call.
func stringArg(item mutation.Item, key string) (string, error) {
	if item.SourceToolCall == nil {
		return "", fmt.Errorf("%w: %s (no source tool call)", errMissingArgument, key)
	}
	raw, ok := item.SourceToolCall.Arguments[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissingArgument, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return value, nil
}
