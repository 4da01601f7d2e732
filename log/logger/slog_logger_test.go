package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/pipesize/log/writer"
	"github.com/hatlonely/pipesize/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSLogWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *SLogOptions
		wantErr bool
	}{
		{name: "nil options", options: nil, wantErr: true},
		{name: "default console output", options: &SLogOptions{Level: "info"}},
		{
			name: "console output by type options",
			options: &SLogOptions{
				Level:  "debug",
				Format: "json",
				Output: &ref.TypeOptions{
					Namespace: writer.Namespace,
					Type:      "ConsoleWriter",
					Options:   &writer.ConsoleWriterOptions{Target: "stdout"},
				},
			},
		},
		{
			name: "file output",
			options: &SLogOptions{
				Output: &ref.TypeOptions{
					Namespace: writer.Namespace,
					Type:      "FileWriter",
					Options:   &writer.FileWriterOptions{Path: filepath.Join(t.TempDir(), "a.log")},
				},
			},
		},
		{
			name: "unknown writer",
			options: &SLogOptions{
				Output: &ref.TypeOptions{Namespace: writer.Namespace, Type: "KafkaWriter"},
			},
			wantErr: true,
		},
		{name: "invalid level", options: &SLogOptions{Level: "invalid"}, wantErr: true},
		{name: "invalid format", options: &SLogOptions{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSLogWithOptions(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "DEBUG", "Info"} {
		_, err := parseLevel(level)
		assert.NoError(t, err, level)
	}
	for _, level := range []string{"trace", ""} {
		_, err := parseLevel(level)
		assert.Error(t, err, level)
	}
}

func TestSLog_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLogWithWriter(&buf, &SLogOptions{
		Level:  "debug",
		Format: "json",
		Fields: map[string]any{"app": "pipesize"},
	})
	require.NoError(t, err)

	l.WithGroup("table").With("rows", 3).Debug("table loaded", "source", "data.json")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "table loaded", record["msg"])
	assert.Equal(t, "pipesize", record["app"])

	group, ok := record["table"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), group["rows"])
	assert.Equal(t, "data.json", group["source"])
}

func TestSLog_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLogWithWriter(&buf, &SLogOptions{Level: "warn"})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
	assert.Contains(t, out, "key=value")
}

func TestSLog_TimeFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLogWithWriter(&buf, &SLogOptions{Format: "json", TimeFormat: "2006-01-02"})
	require.NoError(t, err)
	l.Info("dated")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Len(t, record["time"], len("2006-01-02"))
}
