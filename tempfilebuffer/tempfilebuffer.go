// Package tempfilebuffer implements a write-before-destination buffer: a
// byte sink whose ultimate destination may switch, once, from a temporary
// spill file to a final file while a single writer is still producing
// bytes into it. One owner goroutine performs the Temp->Real transition and
// awaits the writer's completion; one writer goroutine writes and, since Go
// has no destructors, calls Close explicitly to signal it is done.
package tempfilebuffer

import (
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/grailbio/base/errors"
)

// state is the Temp|Real variant this buffer can be in.
type state int

const (
	stateTemp state = iota
	stateReal
)

// shared is the state a TempFileBuffer and its TempFileBufferWriter both
// hold a pointer to. stateMu guards state and file; doneMu/doneCond guard
// the "writer terminated" flag, kept deliberately separate from stateMu so
// that an owner blocked in Await* never holds the lock the writer needs to
// make progress.
type shared struct {
	stateMu sync.Mutex
	state   state
	file    *os.File // the file currently being written to.

	doneMu   sync.Mutex
	doneCond *sync.Cond
	done     bool
}

// TempFileBuffer is the owner handle: it performs the Temp->Real
// transition and waits for the writer to finish.
type TempFileBuffer struct {
	s *shared
}

// TempFileBufferWriter is the sole writer handle: io.Writer plus the Close
// that signals completion.
type TempFileBufferWriter struct {
	s *shared
}

// New allocates a fresh spill file in Temp state and returns the owner and
// writer handles. The spill file is a named temporary file created with
// ioutil.TempFile; dir follows its convention: "" uses the default temp
// directory. Switch removes the spill file; ExpectClosedWrite and AwaitRaw
// leave it on disk.
func New(dir string) (*TempFileBuffer, *TempFileBufferWriter, error) {
	f, err := ioutil.TempFile(dir, "tempfilebuffer")
	if err != nil {
		return nil, nil, errors.E(err, "tempfilebuffer: creating spill file")
	}
	s := &shared{state: stateTemp, file: f}
	s.doneCond = sync.NewCond(&s.doneMu)
	return &TempFileBuffer{s: s}, &TempFileBufferWriter{s: s}, nil
}

// NewFromReal starts in Real state wrapping f directly, for callers that
// already know the final destination and have no use for a spill file.
func NewFromReal(f *os.File) (*TempFileBuffer, *TempFileBufferWriter) {
	s := &shared{state: stateReal, file: f}
	s.doneCond = sync.NewCond(&s.doneMu)
	return &TempFileBuffer{s: s}, &TempFileBufferWriter{s: s}
}

// Write implements io.Writer. It holds the state lock for the duration of
// the underlying write syscall, so a concurrent Switch cannot observe a
// partially-written call.
func (w *TempFileBufferWriter) Write(p []byte) (int, error) {
	w.s.stateMu.Lock()
	defer w.s.stateMu.Unlock()
	return w.s.file.Write(p)
}

// Close signals that the writer is done producing bytes; callers must
// call it exactly once, when finished writing.
func (w *TempFileBufferWriter) Close() error {
	w.s.doneMu.Lock()
	w.s.done = true
	w.s.doneCond.Broadcast()
	w.s.doneMu.Unlock()
	return nil
}

// Switch migrates the buffer from Temp to Real: it rewinds the spill file,
// copies its contents into f, and replaces the state so that subsequent
// writes go straight to f. Switch panics if the buffer is already in Real
// state — calling Switch twice is a programming bug, not a data error.
func (b *TempFileBuffer) Switch(f *os.File) error {
	b.s.stateMu.Lock()
	defer b.s.stateMu.Unlock()
	if b.s.state == stateReal {
		panic("tempfilebuffer: PreconditionViolation: Switch called on a buffer already in Real state")
	}
	spill := b.s.file
	if _, err := spill.Seek(0, io.SeekStart); err != nil {
		return errors.E(err, "tempfilebuffer: rewinding spill file")
	}
	if _, err := io.Copy(f, spill); err != nil {
		return errors.E(err, "tempfilebuffer: copying spill into final file")
	}
	if err := spill.Close(); err != nil {
		return errors.E(err, "tempfilebuffer: closing spill file")
	}
	if err := os.Remove(spill.Name()); err != nil {
		return errors.E(err, "tempfilebuffer: removing spill file")
	}
	b.s.file = f
	b.s.state = stateReal
	return nil
}

// AwaitFile blocks until the writer has called Close, then returns the
// final file. It panics if the buffer never switched to Real state.
func (b *TempFileBuffer) AwaitFile() (*os.File, error) {
	b.await()
	b.s.stateMu.Lock()
	defer b.s.stateMu.Unlock()
	if b.s.state != stateReal {
		panic("tempfilebuffer: PreconditionViolation: AwaitFile called on a buffer still in Temp state")
	}
	return b.s.file, nil
}

// AwaitRaw blocks until the writer has called Close, then returns the
// underlying file from whichever state the buffer ended in — useful when
// no Switch was ever needed.
func (b *TempFileBuffer) AwaitRaw() (*os.File, error) {
	b.await()
	b.s.stateMu.Lock()
	defer b.s.stateMu.Unlock()
	return b.s.file, nil
}

// ExpectClosedWrite blocks until the writer has called Close, then
// rewinds the spill file and streams its contents into out. It panics if
// the buffer has already switched to Real state.
func (b *TempFileBuffer) ExpectClosedWrite(out io.Writer) error {
	b.await()
	b.s.stateMu.Lock()
	defer b.s.stateMu.Unlock()
	if b.s.state != stateTemp {
		panic("tempfilebuffer: PreconditionViolation: ExpectClosedWrite called on a buffer already in Real state")
	}
	if _, err := b.s.file.Seek(0, io.SeekStart); err != nil {
		return errors.E(err, "tempfilebuffer: rewinding spill file")
	}
	if _, err := io.Copy(out, b.s.file); err != nil {
		return errors.E(err, "tempfilebuffer: streaming spill file")
	}
	return nil
}

// await blocks until the writer's Close has run; the completion signal is
// raised exactly once, when the writer is released.
func (b *TempFileBuffer) await() {
	b.s.doneMu.Lock()
	defer b.s.doneMu.Unlock()
	for !b.s.done {
		b.s.doneCond.Wait()
	}
}
