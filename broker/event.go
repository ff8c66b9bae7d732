// Package broker merges output events produced concurrently by build stages
// and supervised emulator processes into one ordered, consumable stream, and
// fans each event out to the configured sinks.
package broker

import "time"

// Source tags where an output line originated.
type Source string

const (
	// SourceStageStdout is a line from a build stage's standard output.
	SourceStageStdout Source = "stageStdout"

	// SourceStageStderr is a line from a build stage's standard error.
	SourceStageStderr Source = "stageStderr"

	// SourceProcessStdout is a line from a supervised process's standard output.
	SourceProcessStdout Source = "processStdout"

	// SourceProcessStderr is a line from a supervised process's standard error.
	SourceProcessStderr Source = "processStderr"
)

// String returns the string representation of the Source.
func (s Source) String() string {
	return string(s)
}

// Event is one line of output together with its origin and arrival time.
// Events from the same Source preserve the producer's emission order; events
// from different sources are interleaved by arrival time.
type Event struct {
	// Time is when the line was observed by the producer.
	Time time.Time

	// Source tags the origin stream.
	Source Source

	// Line is the output line, without the trailing newline.
	Line string
}
