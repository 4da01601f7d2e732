package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TableConfig struct {
	File    string `cfg:"file" validate:"required"`
	RootKey string `cfg:"rootKey" def:"pipe_sizes_lib"`
}

type AppConfig struct {
	Name      string        `cfg:"name" def:"pipesize"`
	Roughness float64       `cfg:"roughness" def:"0.045" validate:"gt=0"`
	Length    float64       `cfg:"length" def:"100" validate:"gt=0"`
	Timeout   time.Duration `cfg:"timeout" def:"2s"`
	Table     TableConfig   `cfg:"table"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	files := map[string]string{
		"app.json": `{"roughness": 0.05, "timeout": "5s", "table": {"file": "data.json"}}`,
		"app.yaml": "roughness: 0.05\ntimeout: 5s\ntable:\n  file: data.json\n",
		"app.toml": "roughness = 0.05\ntimeout = \"5s\"\n[table]\nfile = \"data.json\"\n",
		"app.ini":  "roughness = 0.05\ntimeout = 5s\n[table]\nfile = data.json\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			var c AppConfig
			require.NoError(t, Load(writeFile(t, name, content), &c))

			assert.Equal(t, 0.05, c.Roughness)
			assert.Equal(t, 5*time.Second, c.Timeout)
			assert.Equal(t, "data.json", c.Table.File)
			// 默认值
			assert.Equal(t, "pipesize", c.Name)
			assert.Equal(t, 100.0, c.Length)
			assert.Equal(t, "pipe_sizes_lib", c.Table.RootKey)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	var c AppConfig

	assert.Error(t, Load("", &c))
	assert.Error(t, Load("app.xml", &c))
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.json"), &c))
	assert.Error(t, Load(writeFile(t, "bad.json", `{"roughness":`), &c))

	// 缺少必填字段
	err := Load(writeFile(t, "invalid.yaml", "roughness: 0.05\n"), &c)
	assert.Error(t, err)

	// 校验失败
	err = Load(writeFile(t, "negative.yaml", "roughness: -1\ntable:\n  file: a.json\n"), &c)
	assert.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	type Inner struct {
		Tags []string `def:"a, b"`
		Port uint16   `def:"8080"`
	}
	type Outer struct {
		Enabled bool          `def:"true"`
		Count   int           `def:"3"`
		Wait    time.Duration `def:"1m"`
		Name    *string       `def:"x"`
		Inner   Inner
		Opt     *Inner
	}

	var o Outer
	require.NoError(t, SetDefaults(&o))
	assert.True(t, o.Enabled)
	assert.Equal(t, 3, o.Count)
	assert.Equal(t, time.Minute, o.Wait)
	require.NotNil(t, o.Name)
	assert.Equal(t, "x", *o.Name)
	assert.Equal(t, []string{"a", "b"}, o.Inner.Tags)
	assert.Equal(t, uint16(8080), o.Inner.Port)
	assert.Nil(t, o.Opt)

	// 非零值不覆盖
	o2 := Outer{Count: 7}
	require.NoError(t, SetDefaults(&o2))
	assert.Equal(t, 7, o2.Count)

	assert.Error(t, SetDefaults(nil))
	assert.Error(t, SetDefaults(o))

	type Bad struct {
		N int `def:"abc"`
	}
	assert.Error(t, SetDefaults(&Bad{}))
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(nil))
	assert.NoError(t, ValidateStruct((*AppConfig)(nil)))
	assert.NoError(t, ValidateStruct(42))
	assert.Error(t, ValidateStruct(&AppConfig{}))
	assert.NoError(t, ValidateStruct(&AppConfig{Roughness: 1, Length: 1, Table: TableConfig{File: "a"}}))
}

func TestFormatOf(t *testing.T) {
	for file, want := range map[string]string{"a.JSON": "json", "a.yml": "yaml", "a.yaml": "yaml", "a.toml": "toml", "a.ini": "ini"} {
		got, err := FormatOf(file)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatOf("a.txt")
	assert.Error(t, err)
}
