package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out at most size bytes per Read.
type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func encodeReply(t testing.TB, text string) []byte {
	var buf bytes.Buffer
	for _, r := range text {
		frame, err := Frame(TokenEvent(string(r)))
		if err != nil {
			t.Fatalf("frame: %v", err)
		}
		buf.Write(frame)
	}
	frame, _ := Frame(DoneEvent())
	buf.Write(frame)
	return buf.Bytes()
}

func decodeAll(d *Decoder) ([]Event, error) {
	var out []Event
	for {
		ev, err := d.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, ev)
	}
}

func TestDecoder_ReadsEvents(t *testing.T) {
	in := "data: {\"token\":\"H\"}\n\ndata: {\"token\":\"i\"}\n\ndata: {\"done\":true}\n\n"

	events, err := decodeAll(NewDecoder(strings.NewReader(in)))

	require.NoError(t, err)
	assert.Equal(t, []Event{TokenEvent("H"), TokenEvent("i"), DoneEvent()}, events)
}

func TestDecoder_SkipsMalformedRecords(t *testing.T) {
	in := strings.Join([]string{
		"data: {\"token\":\"a\"}",
		"data: {not json",
		": comment",
		"event: ping",
		"data: {\"other\":1}",
		"data:{\"token\":\"b\"}",
		"data: {\"error\":\"boom\"}",
	}, "\n\n") + "\n\n"

	events, err := decodeAll(NewDecoder(strings.NewReader(in)))

	require.NoError(t, err)
	assert.Equal(t, []Event{TokenEvent("a"), TokenEvent("b"), ErrorEvent("boom")}, events)
}

func TestDecoder_DropsIncompleteTail(t *testing.T) {
	in := "data: {\"token\":\"a\"}\n\ndata: {\"token\":\"b\"}"

	events, err := decodeAll(NewDecoder(strings.NewReader(in)))

	require.NoError(t, err)
	assert.Equal(t, []Event{TokenEvent("a")}, events)
}

func TestDecoder_SeparatorSplitAcrossReads(t *testing.T) {
	d := NewDecoder(nil)

	d.Feed([]byte("data: {\"token\":\"a\"}\n"))
	assert.Empty(t, d.Pending())

	d.Feed([]byte("\ndata: {\"do"))
	assert.Equal(t, []Event{TokenEvent("a")}, d.Pending())

	d.Feed([]byte("ne\":true}\n\n"))
	assert.Equal(t, []Event{DoneEvent()}, d.Pending())
}

func TestDecoder_NewlineTokenSurvives(t *testing.T) {
	events, err := decodeAll(NewDecoder(bytes.NewReader(encodeReply(t, "a\n\nb"))))

	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, "a\n\nb", joinTokens(events))
}

func TestDecoder_ChunkingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("any chunking decodes to the same reply", prop.ForAll(
		func(text string, size int) bool {
			r := &chunkReader{data: encodeReply(t, text), size: size}
			events, err := decodeAll(NewDecoder(r))
			if err != nil || len(events) == 0 {
				return false
			}
			return joinTokens(events) == text && events[len(events)-1] == DoneEvent()
		},
		gen.AnyString(),
		gen.IntRange(1, 17),
	))

	properties.TestingRun(t)
}
