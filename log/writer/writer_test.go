package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hatlonely/pipesize/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleWriterWithOptions(t *testing.T) {
	tests := []struct {
		name       string
		options    *ConsoleWriterOptions
		wantTarget string
		wantWriter *os.File
	}{
		{name: "nil options", options: nil, wantTarget: "stderr", wantWriter: os.Stderr},
		{name: "empty target", options: &ConsoleWriterOptions{}, wantTarget: "stderr", wantWriter: os.Stderr},
		{name: "stdout", options: &ConsoleWriterOptions{Target: "stdout"}, wantTarget: "stdout", wantWriter: os.Stdout},
		{name: "unknown target falls back", options: &ConsoleWriterOptions{Target: "tty"}, wantTarget: "stderr", wantWriter: os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewConsoleWriterWithOptions(tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTarget, w.Target())
			assert.Equal(t, tt.wantWriter, w.writer)
			assert.NoError(t, w.Close())
		})
	}
}

func TestFileWriter(t *testing.T) {
	_, err := NewFileWriterWithOptions(nil)
	assert.Error(t, err)
	_, err = NewFileWriterWithOptions(&FileWriterOptions{})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "logs", "pipesize.log")
	w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path})
	require.NoError(t, err)

	n, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	// 重复关闭无副作用
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("closed\n"))
	assert.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestRegisteredWriters(t *testing.T) {
	w, err := ref.NewWithTypeOptions[Writer](&ref.TypeOptions{
		Namespace: Namespace,
		Type:      "ConsoleWriter",
		Options:   map[string]any{"target": "stdout"},
	})
	require.NoError(t, err)
	assert.Equal(t, "stdout", w.(*ConsoleWriter).Target())

	path := filepath.Join(t.TempDir(), "ref.log")
	w, err = ref.NewWithTypeOptions[Writer](&ref.TypeOptions{
		Namespace: Namespace,
		Type:      "FileWriter",
		Options:   &FileWriterOptions{Path: path},
	})
	require.NoError(t, err)
	defer w.Close()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
