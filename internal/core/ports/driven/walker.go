package driven

import "context"

// FileWalker lists candidate files beneath a root directory.
// Hidden files and entries matching exclusion patterns are skipped.
type FileWalker interface {
	// Walk returns the absolute paths of regular files under root.
	Walk(ctx context.Context, root string) ([]string, error)
}
