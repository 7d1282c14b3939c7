package keyboard

import (
	"fmt"
	"io"

	"kasync/internal/asyncrt"
	"kasync/internal/trace"
)

// PrintKeypresses returns the key-printer task body: it decodes every
// scancode from stream and writes the typed character, or the key name for
// keys without one, to sink. It finishes when the stream ends.
//
// Drops reported by the queue and decode errors are traced as warnings from
// task context; neither stops the task.
func PrintKeypresses(stream *ScancodeStream, dec *Decoder, sink io.Writer, tracer trace.Tracer) asyncrt.Future[any] {
	if dec == nil {
		dec = NewDecoder(nil)
	}
	handle := func(code uint8) {
		if n := stream.NewlyDropped(); n > 0 {
			trace.Warn(tracer, trace.ScopeTask, "scancode queue full; dropping keyboard input",
				fmt.Sprintf("dropped=%d", n))
		}
		key, ok, err := dec.Feed(code)
		if err != nil {
			trace.Warn(tracer, trace.ScopeTask, "decode", err.Error())
			return
		}
		if !ok {
			return
		}
		if key.IsRune {
			fmt.Fprintf(sink, "%c", key.Rune)
			return
		}
		fmt.Fprint(sink, key.Raw.String())
	}
	return asyncrt.Any(asyncrt.Then(asyncrt.ForEach[uint8](stream, handle),
		func(struct{}) asyncrt.Future[struct{}] {
			stream.Close()
			return asyncrt.Value(struct{}{})
		}))
}
