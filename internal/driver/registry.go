package driver

import (
	"flux/internal/lower"
	"flux/internal/pass"
	"flux/internal/pipeline"
)

// DefaultRegistry returns the registry of passes schedulable by name
// from manifests and the command line.
func DefaultRegistry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	r.Register("dedup", lower.Dedup)
	r.Register("replace-seq-mems", func() pass.Pass {
		return lower.ReplaceSeqMems(lower.DefaultSeqMemDepth)
	})
	r.Register("const-prop", lower.ConstProp)
	r.Register("dead-code", lower.DeadCode)
	return r
}
