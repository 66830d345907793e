package runtime

import (
	"errors"
	"testing"
)

func TestWriteBuffersUnderCork(t *testing.T) {
	var written []interface{}
	w := NewWritable(func(chunk interface{}) error {
		written = append(written, chunk)
		return nil
	}, nil)
	w.Cork()
	w.Write("a")
	w.Write("b")
	if len(written) != 0 {
		t.Fatalf("expected writes buffered while corked, got %v", written)
	}
	w.Uncork()
	if len(written) != 2 {
		t.Errorf("expected buffered writes flushed, got %v", written)
	}
}

func TestEndIsIdempotentAndEmitsFinishOnce(t *testing.T) {
	finishCount := 0
	w := NewWritable(func(chunk interface{}) error { return nil }, nil)
	w.On("finish", func(args []interface{}) { finishCount++ })
	w.End()
	w.End()
	w.End()
	if finishCount != 1 {
		t.Errorf("expected finish emitted exactly once, got %d", finishCount)
	}
	if !w.State.Ended || !w.State.Finished {
		t.Error("expected stream marked ended and finished")
	}
}

func TestDestroyIsIdempotentAndEmitsCloseOnce(t *testing.T) {
	closeCount := 0
	w := NewWritable(func(chunk interface{}) error { return nil }, nil)
	w.On("close", func(args []interface{}) { closeCount++ })
	w.Destroy()
	w.Destroy()
	if closeCount != 1 {
		t.Errorf("expected close emitted exactly once, got %d", closeCount)
	}
}

func TestWriteAfterEndEmitsError(t *testing.T) {
	w := NewWritable(func(chunk interface{}) error { return nil }, nil)
	w.End()
	var gotErr bool
	w.On("error", func(args []interface{}) { gotErr = true })
	w.Write("late")
	if !gotErr {
		t.Error("expected error event when writing after end")
	}
}

func TestFinalCallbackErrorPreventsFinish(t *testing.T) {
	w := NewWritable(func(chunk interface{}) error { return nil }, func() error {
		return errors.New("boom")
	})
	var gotErr bool
	w.On("error", func(args []interface{}) { gotErr = true })
	w.End()
	if !gotErr {
		t.Error("expected error event from failing final callback")
	}
	if w.State.Finished {
		t.Error("stream should not be marked finished when final callback errors")
	}
}
