package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// workspace resolves tool paths against the configured root and rejects
// anything that escapes it.
type workspace struct {
	root string
}

func (w workspace) resolve(path string) (string, error) {
	clean := strings.TrimPrefix(path, "/")
	full := filepath.Join(w.root, clean)

	rel, err := filepath.Rel(w.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return full, nil
}

// ============================================================================
// fs_read
// ============================================================================

// FsReadTool reads a file inside the workspace.
type FsReadTool struct {
	ws workspace
}

func NewFsReadTool(root string) *FsReadTool { return &FsReadTool{ws: workspace{root: root}} }

func (t *FsReadTool) Name() string { return "fs_read" }

func (t *FsReadTool) Description() string {
	return "Read the contents of a file inside the workspace."
}

func (t *FsReadTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "path", Type: "string", Description: "File path relative to the workspace root", Required: true},
	}
}

func (t *FsReadTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	full, err := t.ws.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ============================================================================
// fs_write
// ============================================================================

// FsWriteTool writes a file inside the workspace, overwriting any previous
// contents and creating parent directories as needed.
type FsWriteTool struct {
	ws workspace
}

func NewFsWriteTool(root string) *FsWriteTool { return &FsWriteTool{ws: workspace{root: root}} }

func (t *FsWriteTool) Name() string { return "fs_write" }

func (t *FsWriteTool) Description() string {
	return "Write a file inside the workspace (overwrite mode)."
}

func (t *FsWriteTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "path", Type: "string", Description: "File path relative to the workspace root", Required: true},
		{Name: "content", Type: "string", Description: "Full file contents to write", Required: true},
	}
}

func (t *FsWriteTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)

	full, err := t.ws.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fmt.Sprintf("wrote %s", path), nil
}

// ============================================================================
// fs_patch
// ============================================================================

// FsPatchTool applies a find-and-replace edit to a workspace file. The old
// string must occur exactly once.
type FsPatchTool struct {
	ws workspace
}

func NewFsPatchTool(root string) *FsPatchTool { return &FsPatchTool{ws: workspace{root: root}} }

func (t *FsPatchTool) Name() string { return "fs_patch" }

func (t *FsPatchTool) Description() string {
	return "Edit part of a workspace file by replacing an exact string that occurs once."
}

func (t *FsPatchTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "path", Type: "string", Description: "File path relative to the workspace root", Required: true},
		{Name: "old_string", Type: "string", Description: "Exact text to find and replace", Required: true},
		{Name: "new_string", Type: "string", Description: "Replacement text", Required: true},
	}
}

func (t *FsPatchTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	oldString, _ := args["old_string"].(string)
	newString, _ := args["new_string"].(string)

	full, err := t.ws.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	switch n := strings.Count(content, oldString); {
	case n == 0:
		return "", fmt.Errorf("old_string not found in %s", path)
	case n > 1:
		return "", fmt.Errorf("old_string occurs %d times in %s, cannot determine which to replace", n, path)
	}

	patched := strings.Replace(content, oldString, newString, 1)
	if err := os.WriteFile(full, []byte(patched), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fmt.Sprintf("patched %s", path), nil
}

// ============================================================================
// fs_list
// ============================================================================

// FsListTool lists a directory inside the workspace.
type FsListTool struct {
	ws workspace
}

func NewFsListTool(root string) *FsListTool { return &FsListTool{ws: workspace{root: root}} }

func (t *FsListTool) Name() string { return "fs_list" }

func (t *FsListTool) Description() string {
	return "List the contents of a workspace directory. Directories are suffixed with '/'."
}

func (t *FsListTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "path", Type: "string", Description: "Directory path relative to the workspace root ('.' for the root itself)", Required: true},
	}
}

func (t *FsListTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	full, err := t.ws.resolve(path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", path, err)
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		items = append(items, name)
	}
	sort.Strings(items)

	if len(items) == 0 {
		return "(empty directory)", nil
	}
	return strings.Join(items, "\n"), nil
}

// RegisterFsTools registers the filesystem tools rooted at the workspace.
func RegisterFsTools(r *Registry, root string) {
	r.MustRegister(NewFsReadTool(root))
	r.MustRegister(NewFsWriteTool(root))
	r.MustRegister(NewFsPatchTool(root))
	r.MustRegister(NewFsListTool(root))
}
