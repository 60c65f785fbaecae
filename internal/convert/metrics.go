package convert

import "sync/atomic"

// Process-wide conversion counters.
var (
	framesIn          atomic.Uint64 // Convert calls
	framesConverted   atomic.Uint64 // frames that ran at least one stage
	framesPassthrough atomic.Uint64 // frames already in the requested layout
	framesFailed      atomic.Uint64 // frames rejected or aborted by a stage
	stagesRun         atomic.Uint64
	bytesOut          atomic.Uint64 // I/O bytes of converted frames
)

// ResetCounters resets all metrics to zero.
func ResetCounters() {
	framesIn.Store(0)
	framesConverted.Store(0)
	framesPassthrough.Store(0)
	framesFailed.Store(0)
	stagesRun.Store(0)
	bytesOut.Store(0)
}

// GetCounters returns a snapshot of current metrics.
func GetCounters() map[string]uint64 {
	return map[string]uint64{
		"frames_in":          framesIn.Load(),
		"frames_converted":   framesConverted.Load(),
		"frames_passthrough": framesPassthrough.Load(),
		"frames_failed":      framesFailed.Load(),
		"stages_run":         stagesRun.Load(),
		"bytes_out":          bytesOut.Load(),
	}
}

func incFramesIn()          { framesIn.Add(1) }
func incFramesConverted()   { framesConverted.Add(1) }
func incFramesPassthrough() { framesPassthrough.Add(1) }
func incFramesFailed()      { framesFailed.Add(1) }
func incStagesRun()         { stagesRun.Add(1) }
func incBytesOut(n int) {
	if n > 0 {
		bytesOut.Add(uint64(n))
	}
}
