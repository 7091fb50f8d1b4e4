package tempfilebuffer

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSwitchMidWrite exercises a writer trickling bytes in on its own
// goroutine while the owner switches the destination mid-stream, then
// awaits every byte landing in the final file.
func TestSwitchMidWrite(t *testing.T) {
	buf, writer, err := New("")
	require.NoError(t, err)

	const numBytes = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer writer.Close()
		for i := 0; i < numBytes; i++ {
			time.Sleep(time.Millisecond)
			b := []byte{byte(i % 8)}
			_, err := writer.Write(b)
			require.NoError(t, err)
		}
	}()

	time.Sleep(5 * time.Millisecond)

	outFile, err := ioutil.TempFile("", "tempfilebuffer-final")
	require.NoError(t, err)
	defer os.Remove(outFile.Name())

	require.NoError(t, buf.Switch(outFile))

	f, err := buf.AwaitRaw()
	require.NoError(t, err)
	<-done

	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	out, err := ioutil.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, out, numBytes, "all bytes not accounted for")
}

func TestAwaitFileRequiresRealState(t *testing.T) {
	buf, writer, err := New("")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	assert.Panics(t, func() {
		_, _ = buf.AwaitFile()
	})
}

func TestExpectClosedWrite(t *testing.T) {
	buf, writer, err := New("")
	require.NoError(t, err)

	_, err = writer.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	var out bytes.Buffer
	require.NoError(t, buf.ExpectClosedWrite(&out))
	assert.Equal(t, "hello", out.String())
}

func TestExpectClosedWriteRequiresTempState(t *testing.T) {
	buf, writer, err := New("")
	require.NoError(t, err)

	outFile, err := ioutil.TempFile("", "tempfilebuffer-final")
	require.NoError(t, err)
	defer os.Remove(outFile.Name())
	require.NoError(t, buf.Switch(outFile))
	require.NoError(t, writer.Close())

	assert.Panics(t, func() {
		_ = buf.ExpectClosedWrite(&bytes.Buffer{})
	})
}

func TestSwitchTwicePanics(t *testing.T) {
	buf, writer, err := New("")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	outFile, err := ioutil.TempFile("", "tempfilebuffer-final")
	require.NoError(t, err)
	defer os.Remove(outFile.Name())
	require.NoError(t, buf.Switch(outFile))

	assert.Panics(t, func() {
		_ = buf.Switch(outFile)
	})
}

func TestNewFromReal(t *testing.T) {
	f, err := ioutil.TempFile("", "tempfilebuffer-real")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	buf, writer := NewFromReal(f)
	_, err = writer.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	got, err := buf.AwaitFile()
	require.NoError(t, err)
	assert.Equal(t, f.Name(), got.Name())
}
