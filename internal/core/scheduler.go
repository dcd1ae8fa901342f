package core

import "fmt"

// Stage names, in chain order.
const (
	StageRename    = "rename"
	StagePairwise  = "pairwise"
	StagePlot      = "plot"
	StageIndex     = "index"
	StageTreeIndex = "treeindex"
	StagePublish   = "publish"
)

// Chain is the fixed stage order. Stages can be toggled off individually but
// never reordered; each stage consumes what its predecessors produced.
var Chain = []string{StageRename, StagePairwise, StagePlot, StageIndex, StageTreeIndex, StagePublish}

// Scheduler decides which stages of the chain run, honouring the config
// toggles plus the From/Only selections used when rerunning a suffix of the
// pipeline during iterative work.
type Scheduler struct {
	cfg  *Pipeline
	From string // first stage to run; earlier stages are skipped
	Only string // run exactly this stage
}

// NewScheduler creates a scheduler over the pipeline config.
func NewScheduler(cfg *Pipeline) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// Plan returns the ordered list of stage names this run will execute.
func (s *Scheduler) Plan() ([]string, error) {
	if s.Only != "" && stageIndex(s.Only) < 0 {
		return nil, fmt.Errorf("unknown stage %q", s.Only)
	}
	from := 0
	if s.From != "" {
		from = stageIndex(s.From)
		if from < 0 {
			return nil, fmt.Errorf("unknown stage %q", s.From)
		}
	}

	var plan []string
	for i, name := range Chain {
		if i < from {
			continue
		}
		if s.Only != "" && name != s.Only {
			continue
		}
		if !s.cfg.StageEnabled(name) {
			continue
		}
		plan = append(plan, name)
	}
	return plan, nil
}

func stageIndex(name string) int {
	for i, stage := range Chain {
		if stage == name {
			return i
		}
	}
	return -1
}
