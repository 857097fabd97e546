// Package relay drains a worker's output channel into the host's logging sink.
package relay

import (
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/tessro/sidecar/internal/sidecar"
)

// Message prefixes for relayed output.
const (
	StdoutPrefix = "Backend stdout: "
	StderrPrefix = "Backend stderr: "
)

// Sink receives decoded worker output.
//
// Calls come from the relay goroutine one at a time. A slow sink slows the
// drain but never stops it; a panicking sink call is logged and skipped.
type Sink interface {
	Stdout(text string)
	Stderr(text string)
	Exited(code int, signal string)
}

// Stats summarizes a finished relay.
type Stats struct {
	Stdout int
	Stderr int
	Bytes  int64
	Exited bool
}

// Run forwards every event on events to sink and returns once events is
// closed. It has no other exit path and never returns an error.
func Run(events <-chan sidecar.OutputEvent, sink Sink) Stats {
	log := slog.With("component", "relay")
	dec := unicode.UTF8.NewDecoder()

	var st Stats
	for ev := range events {
		switch ev.Kind {
		case sidecar.Stdout:
			st.Stdout++
			st.Bytes += int64(len(ev.Data))
			text := decode(dec, ev.Data)
			deliver(log, func() { sink.Stdout(text) })
		case sidecar.Stderr:
			st.Stderr++
			st.Bytes += int64(len(ev.Data))
			text := decode(dec, ev.Data)
			deliver(log, func() { sink.Stderr(text) })
		case sidecar.Terminated:
			st.Exited = true
			deliver(log, func() { sink.Exited(ev.Code, ev.Signal) })
		default:
			log.Warn("ignoring unknown output event", "kind", ev.Kind)
		}
	}

	log.Debug("output channel closed",
		"stdout_chunks", st.Stdout,
		"stderr_chunks", st.Stderr,
		"bytes", st.Bytes,
		"exited", st.Exited,
	)
	return st
}

// deliver runs one sink call, keeping the drain alive if it panics.
func deliver(log *slog.Logger, call func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("sink panicked", "panic", r)
		}
	}()
	call()
}

// Decode converts a raw chunk to text. Invalid UTF-8 becomes U+FFFD; it never
// fails and never drops input. One trailing line break is removed.
func Decode(chunk []byte) string {
	return decode(unicode.UTF8.NewDecoder(), chunk)
}

func decode(dec *encoding.Decoder, chunk []byte) string {
	out, err := dec.Bytes(chunk)
	if err != nil {
		out = []byte(strings.ToValidUTF8(string(chunk), "\uFFFD"))
	}
	return trimLineBreak(string(out))
}

func trimLineBreak(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
