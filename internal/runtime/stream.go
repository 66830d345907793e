package runtime

// WritableState is the state-machine bit-set a Writable stream tracks
// (spec §4.7 "Writable stream"): writable/ended/finished/destroyed/corked.
type WritableState struct {
	Writable  bool
	Ended     bool
	Finished  bool
	Destroyed bool
	Corked    int
}

// Writable is a minimal Node-style writable stream: buffering, cork/
// uncork batching, and idempotent end()/destroy() semantics, built on top
// of EventEmitter for `finish`/`close`/`error`/`drain` notification.
type Writable struct {
	*EventEmitter
	State WritableState

	corkedChunks []interface{}

	// WriteCallback performs the actual write (e.g. append to an
	// in-memory sink, or hand bytes to an underlying transport); it
	// returns an error to reject the write and emit `error`.
	WriteCallback func(chunk interface{}) error
	// FinalCallback runs once, when the stream is ending and all
	// buffered writes have drained, before `finish` is emitted.
	FinalCallback func() error
}

// NewWritable creates a stream in the writable, non-ended state.
func NewWritable(writeCB func(chunk interface{}) error, finalCB func() error) *Writable {
	return &Writable{
		EventEmitter:  NewEventEmitter(),
		State:         WritableState{Writable: true},
		WriteCallback: writeCB,
		FinalCallback: finalCB,
	}
}

// Cork buffers subsequent Write calls until a matching Uncork, batching
// many small writes into one flush — it is reference-counted so nested
// cork/uncork pairs compose.
func (w *Writable) Cork() *Writable {
	w.State.Corked++
	return w
}

// Uncork flushes buffered chunks once the cork count returns to zero.
func (w *Writable) Uncork() *Writable {
	if w.State.Corked > 0 {
		w.State.Corked--
	}
	if w.State.Corked == 0 {
		w.flushCorked()
	}
	return w
}

func (w *Writable) flushCorked() {
	pending := w.corkedChunks
	w.corkedChunks = nil
	for _, c := range pending {
		w.doWrite(c)
	}
}

// Write queues or performs a write depending on cork state. It returns
// true for every accepted write (no backpressure threshold is modeled)
// and false, after emitting `error`, when the stream has already ended
// or been destroyed.
func (w *Writable) Write(chunk interface{}) bool {
	if w.State.Destroyed || w.State.Ended {
		w.emitError("Cannot write after a stream was ended or destroyed")
		return false
	}
	if w.State.Corked > 0 {
		w.corkedChunks = append(w.corkedChunks, chunk)
		return true
	}
	w.doWrite(chunk)
	return true
}

func (w *Writable) doWrite(chunk interface{}) {
	if w.WriteCallback == nil {
		return
	}
	if err := w.WriteCallback(chunk); err != nil {
		w.emitError(err.Error())
	}
}

// End flushes any remaining buffered data, marks the stream ended, and
// finishes it. A second call is a no-op (idempotent per spec).
func (w *Writable) End(finalChunk ...interface{}) *Writable {
	if w.State.Ended || w.State.Destroyed {
		return w
	}
	if len(finalChunk) > 0 {
		w.Write(finalChunk[0])
	}
	if w.State.Corked > 0 {
		w.flushCorked()
	}
	w.State.Ended = true
	w.finish()
	return w
}

func (w *Writable) finish() {
	if w.State.Finished {
		return
	}
	if w.FinalCallback != nil {
		if err := w.FinalCallback(); err != nil {
			w.emitError(err.Error())
			return
		}
	}
	w.State.Finished = true
	w.Emit("finish")
}

// Destroy forcibly tears the stream down, skipping End's normal flush
// path; a second call is a no-op.
func (w *Writable) Destroy() *Writable {
	if w.State.Destroyed {
		return w
	}
	w.State.Destroyed = true
	w.State.Writable = false
	w.Emit("close")
	return w
}

// DestroyWithError emits `error` with err before `close` (spec §4.7:
// "destroy(err) emits error if err is non-null then close"), with the
// same idempotence as Destroy.
func (w *Writable) DestroyWithError(err interface{}) *Writable {
	if w.State.Destroyed {
		return w
	}
	w.State.Destroyed = true
	w.State.Writable = false
	w.Emit("error", err)
	w.Emit("close")
	return w
}

func (w *Writable) emitError(msg string) {
	w.Emit("error", &Exception{Value: "Error: " + msg})
}
