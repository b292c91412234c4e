package narrative

import "context"

// Analyzer produces a free-text risk narrative for extracted document
// text. Implementations may be slow, fail, or return an empty string; the
// pipeline tolerates all three and degrades to heuristic-only output.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}
