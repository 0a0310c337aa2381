// Package simulate runs the registration pipeline: a user is registered, validated, and
// then either rejected by the error handler or routed through region processing to the
// welcome email.
//
// Each stage is a pure function (Validate, ProcessRegion, SendEmail, HandleError). The
// Simulator walks the pipeline graph, waits a configurable delay between stages, and
// publishes one timestamped Record per stage, keyed by the stage's node id.
package simulate
