package hl7

import (
	"fmt"
	"time"
)

// ControlIDSequence is the state carried between NextControlID calls.
// The zero value is ready to use.
type ControlIDSequence struct {
	second time.Time
	n      int
}

const (
	controlIDLayout = "20060102150405"

	// controlIDsPerSecond is the capacity of the four-digit counter.
	controlIDsPerSecond = 9999
)

// NextControlID returns an MSH-10 value for now and the sequence to pass to
// the next call. IDs are a UTC second followed by a four-digit counter
// starting at 0001, 18 characters in total. Once a second's counter is used
// up, or when the clock steps back, IDs continue on the sequence's own
// second, so a threaded sequence never repeats an ID.
func NextControlID(seq ControlIDSequence, now time.Time) (string, ControlIDSequence) {
	second := now.UTC().Truncate(time.Second)
	if second.After(seq.second) {
		seq = ControlIDSequence{second: second}
	}
	seq.n++
	if seq.n > controlIDsPerSecond {
		seq.second = seq.second.Add(time.Second)
		seq.n = 1
	}
	return fmt.Sprintf("%s%04d", seq.second.Format(controlIDLayout), seq.n), seq
}
