package stream

import (
	"bytes"
	"encoding/json"
	"io"
)

// Decoder reads chat events from a server-sent event byte stream. Records may
// arrive split across reads; a record is only decoded once its blank-line
// separator has been seen. Records that do not parse as a chat event are
// skipped.
type Decoder struct {
	r       io.Reader
	buf     []byte
	chunk   []byte
	pending []Event
	err     error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:     r,
		chunk: make([]byte, 4096),
	}
}

// Next returns the next event. It returns io.EOF once the stream has ended;
// an incomplete trailing record is discarded at that point.
func (d *Decoder) Next() (Event, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return Event{}, d.err
		}
		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.Feed(d.chunk[:n])
		}
		if err != nil {
			d.err = err
		}
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

// Feed appends raw bytes to the pending buffer and queues every event whose
// record is now complete. It is exported for callers that receive bytes by
// other means than an io.Reader.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
	for {
		idx := bytes.Index(d.buf, []byte(recordSeparator))
		if idx < 0 {
			break
		}
		record := d.buf[:idx]
		d.buf = d.buf[idx+len(recordSeparator):]
		if ev, ok := parseRecord(record); ok {
			d.pending = append(d.pending, ev)
		}
	}
}

// Pending returns the events decoded by Feed that Next has not returned yet,
// and clears them.
func (d *Decoder) Pending() []Event {
	out := d.pending
	d.pending = nil
	return out
}

func parseRecord(record []byte) (Event, bool) {
	record = bytes.TrimSpace(record)
	if !bytes.HasPrefix(record, []byte(recordPrefix)) {
		return Event{}, false
	}
	payload := bytes.TrimSpace(record[len(recordPrefix):])

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}
