package release

// StepName is a strongly-typed identifier for a release step. The steps run
// in the order declared here.
type StepName string

// Canonical step names.
const (
	StepIncrementBuild StepName = "increment_build"
	StepStageManifest  StepName = "stage_manifest"
	StepCommit         StepName = "commit"
	StepTag            StepName = "tag"
	StepCopyArtifacts  StepName = "copy_artifacts"
	StepUpload         StepName = "upload"
	StepAnnounce       StepName = "announce"
)

// Steps lists every step in execution order.
func Steps() []StepName {
	return []StepName{
		StepIncrementBuild,
		StepStageManifest,
		StepCommit,
		StepTag,
		StepCopyArtifacts,
		StepUpload,
		StepAnnounce,
	}
}

// StagingReminder is printed when a release has been shipped; staging the
// web site is a manual follow-up.
const StagingReminder = "staging site"
