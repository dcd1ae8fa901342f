package core

import (
	"fmt"
	"os"

	"phylopipe/internal/storage"
)

// Builder maps discovered samples to fully resolved jobs, one per sample per
// stage. A sample missing a required upstream artifact is excluded from the
// batch and counted, not treated as an error: discovery runs fresh for each
// stage, so a batch only ever sees samples whose inputs currently exist.
type Builder struct {
	cfg   *Pipeline
	store *storage.CaptureStore
}

// NewBuilder creates a Builder over the given config and run directory.
func NewBuilder(cfg *Pipeline, store *storage.CaptureStore) *Builder {
	return &Builder{cfg: cfg, store: store}
}

// Rename builds the batch for the rename stage: one job per params file,
// rewriting it in place against the two lookup lists. The lists are shared
// inputs, so their absence is a precondition failure rather than a
// per-sample skip. Rename runs without output capture.
func (b *Builder) Rename() (Batch, error) {
	batch := Batch{Stage: StageRename}
	if b.cfg.Rename.HiddenList == "" || b.cfg.Rename.RenamedList == "" {
		// No lookup lists configured; nothing to rename.
		return batch, nil
	}
	for _, list := range []string{b.cfg.Rename.HiddenList, b.cfg.Rename.RenamedList} {
		if !exists(list) {
			return batch, fmt.Errorf("rename: lookup list missing: %s", list)
		}
	}

	ids, err := DiscoverSamples(b.cfg.Dataset, ".params.json")
	if err != nil {
		return batch, err
	}
	for _, id := range ids {
		batch.Jobs = append(batch.Jobs, Job{
			Sample:  id,
			Program: b.cfg.Workers.Rename,
			Args: []string{
				b.store.DatasetPath(b.cfg.Dataset, id, "params.json"),
				b.cfg.Rename.HiddenList,
				b.cfg.Rename.RenamedList,
			},
		})
	}
	return batch, nil
}

// Pairwise builds the batch computing one pairwise JSON result per
// measurement file.
func (b *Builder) Pairwise() (Batch, error) {
	batch := Batch{Stage: StagePairwise}
	ids, err := DiscoverSamples(b.cfg.Dataset, ".ssm")
	if err != nil {
		return batch, err
	}
	for _, id := range ids {
		ssm := b.store.DatasetPath(b.cfg.Dataset, id, "ssm")
		out := b.store.ArtifactPath(id, "pairwise.json")
		if upToDate(out, ssm) {
			batch.UpToDate++
			continue
		}
		batch.Jobs = append(batch.Jobs, b.captured(Job{
			Sample:  id,
			Program: b.cfg.Workers.Pairwise,
			Args:    []string{ssm, out},
		}))
	}
	return batch, nil
}

// Plot builds the batch rendering one HTML report plus compressed summary
// and mutation-list JSON per sample that has a pairwise result. Samples
// whose dataset artifacts (ssm, params, spreadsheet) are incomplete are
// skipped and counted.
func (b *Builder) Plot() (Batch, error) {
	batch := Batch{Stage: StagePlot}
	ids, err := DiscoverSamples(b.cfg.RunDir, ".pairwise.json")
	if err != nil {
		return batch, err
	}
	for _, id := range ids {
		pairwise := b.store.ArtifactPath(id, "pairwise.json")
		ssm := b.store.DatasetPath(b.cfg.Dataset, id, "ssm")
		params := b.store.DatasetPath(b.cfg.Dataset, id, "params.json")
		xlsx := b.store.DatasetPath(b.cfg.Dataset, id, "xlsx")
		if !exists(ssm) || !exists(params) || !exists(xlsx) {
			batch.Skipped++
			continue
		}

		html := b.store.ArtifactPath(id, "results.html")
		summ := b.store.ArtifactPath(id, "summ.json.gz")
		muts := b.store.ArtifactPath(id, "muts.json.gz")
		if upToDate(html, pairwise, ssm, params, xlsx) &&
			upToDate(summ, pairwise, ssm, params, xlsx) &&
			upToDate(muts, pairwise, ssm, params, xlsx) {
			batch.UpToDate++
			continue
		}
		batch.Jobs = append(batch.Jobs, b.captured(Job{
			Sample:  id,
			Program: b.cfg.Workers.Plot,
			Args:    []string{pairwise, ssm, params, xlsx, html, summ, muts, b.cfg.Plot.OutputType},
		}))
	}
	return batch, nil
}

// TreeIndex builds the batch annotating each compressed summary/mutation
// pair in place. The worker needs an external library path resolvable at
// invocation time, exported through the job environment.
func (b *Builder) TreeIndex() (Batch, error) {
	batch := Batch{Stage: StageTreeIndex}
	ids, err := DiscoverSamples(b.cfg.RunDir, ".summ.json.gz")
	if err != nil {
		return batch, err
	}
	var env []string
	if b.cfg.TreeIndex.LibPath != "" {
		env = []string{"LIBPATH=" + b.cfg.TreeIndex.LibPath}
	}
	for _, id := range ids {
		summ := b.store.ArtifactPath(id, "summ.json.gz")
		muts := b.store.ArtifactPath(id, "muts.json.gz")
		if !exists(muts) {
			batch.Skipped++
			continue
		}
		batch.Jobs = append(batch.Jobs, b.captured(Job{
			Sample:  id,
			Program: b.cfg.Workers.TreeIndex,
			Args:    []string{summ, muts},
			Env:     env,
		}))
	}
	return batch, nil
}

// captured attaches the per-sample capture targets to a job. One file per
// stream per sample; never shared across samples.
func (b *Builder) captured(job Job) Job {
	job.Stdout = b.store.StdoutPath(job.Sample)
	job.Stderr = b.store.StderrPath(job.Sample)
	return job
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// upToDate reports whether output exists and is no older than every input.
func upToDate(output string, inputs ...string) bool {
	out, err := os.Stat(output)
	if err != nil {
		return false
	}
	for _, in := range inputs {
		st, err := os.Stat(in)
		if err != nil {
			return false
		}
		if out.ModTime().Before(st.ModTime()) {
			return false
		}
	}
	return true
}
