// Package render runs the scene engine on a normalized script and locates
// the video it produces.
//
// # Lifecycle
//
// Each call to [Orchestrator.Render] is one [Job] owning one subprocess:
//
//	Idle -> Writing -> Spawned -> Collecting -> Succeeded | Failed
//
// Writing stores the script as animation_<id>.py in the work directory.
// Spawned starts the engine with the root directory as its working directory
// and the configured entries appended to PATH. Collecting buffers stdout and
// stderr separately until the process exits; nothing is interpreted before
// exit. On exit 0 the artifact path is read from the "File ready at" record
// (see [ParseArtifactPath]) and translated to a public URL (see
// [TranslatePath]).
//
// Every transition is logged at debug level and reported to
// observability.Render().
//
// # Failures
//
// Every failure is an *errors.Error with Diagnostics holding the script, the
// full captured output and the exit code:
//
//   - WRITE_FAILURE: the script could not be written
//   - SPAWN_FAILURE: the engine could not be started
//   - ENGINE_EXIT_NONZERO: the engine failed or timed out
//   - ARTIFACT_NOT_FOUND: exit 0 without a ready record
//   - PATH_TRANSLATION_FAILURE: the artifact is outside the media tree
//
// Nothing is retried. The subprocess is detached from caller cancellation so
// an abandoned request does not leave a half-written video; set
// Options.Timeout to bound it.
package render
