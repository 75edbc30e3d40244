package editor

import (
	"time"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// Entry is one committed mutation.
type Entry struct {
	Seq        uint64       `json:"seq"`
	Op         string       `json:"op"`
	Kind       roadmap.Kind `json:"kind"`
	ID         string       `json:"id"`
	At         time.Time    `json:"at"`
	DurationMs int64        `json:"durationMs"`
}

// journal keeps the last size entries. The Store lock guards it.
type journal struct {
	size    int
	seq     uint64
	entries []Entry
}

func newJournal(size int) *journal {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &journal{size: size}
}

func (j *journal) add(e Entry) {
	j.seq++
	e.Seq = j.seq
	j.entries = append(j.entries, e)
	if over := len(j.entries) - j.size; over > 0 {
		j.entries = append(j.entries[:0], j.entries[over:]...)
	}
}

// list returns the entries newest first.
func (j *journal) list() []Entry {
	out := make([]Entry, len(j.entries))
	for i, e := range j.entries {
		out[len(out)-1-i] = e
	}
	return out
}
