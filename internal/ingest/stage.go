package ingest

// Stage tracks how far an item has advanced through the commit sequence.
// Stages only ever move forward; StageCataloged, StageSkipped, and
// StageFailed are terminal.
type Stage int

const (
	StagePending Stage = iota
	StageHashed
	StageDedupChecked
	StageMetadataDone
	StageRendered
	StageQuotaReserved
	StageUploaded
	StageCataloged
	StageSkipped
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageHashed:
		return "hashed"
	case StageDedupChecked:
		return "dedup-checked"
	case StageMetadataDone:
		return "metadata-done"
	case StageRendered:
		return "rendered"
	case StageQuotaReserved:
		return "quota-reserved"
	case StageUploaded:
		return "uploaded"
	case StageCataloged:
		return "cataloged"
	case StageSkipped:
		return "skipped"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the stage is an end state.
func (s Stage) Terminal() bool {
	return s == StageCataloged || s == StageSkipped || s == StageFailed
}
