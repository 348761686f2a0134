package domain

// RunConfig is the immutable snapshot of what a single invocation targets.
type RunConfig struct {
	Bucket              string
	Prefix              string
	DryRun              bool
	RequireConfirmation bool
}

// Target renders bucket/prefix for logs.
func (c RunConfig) Target() string {
	return c.Bucket + "/" + c.Prefix
}

// Counts holds the pre-deletion totals.
type Counts struct {
	VisibleObjects int64
	TotalVersions  int64
}

// Empty reports whether there is nothing to delete.
func (c Counts) Empty() bool {
	return c.VisibleObjects == 0 && c.TotalVersions == 0
}

type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeNothingToDelete Outcome = "nothing_to_delete"
	OutcomeAborted         Outcome = "aborted"
)

type Phase string

const (
	PhaseProbe       Phase = "probe"
	PhaseCount       Phase = "count"
	PhaseConfirm     Phase = "confirm"
	PhaseDrySimulate Phase = "dry_simulate"
	PhaseDelete      Phase = "delete"
	PhaseReport      Phase = "report"
)

// Report summarises a finished run.
type Report struct {
	Target    string
	Versioned bool
	Counts    Counts
	Outcome   Outcome
	Batches   int
	Deleted   int64
	Simulated int64
}
