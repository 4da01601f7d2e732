package ref

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Value struct {
	Name    string
	Timeout time.Duration
}

type Options struct {
	Name    string        `cfg:"name"`
	Timeout time.Duration `cfg:"timeout"`
}

func NewValue(options *Options) (*Value, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if options.Name == "" {
		return nil, errors.New("name cannot be empty")
	}
	return &Value{Name: options.Name, Timeout: options.Timeout}, nil
}

func NewDefaultValue() *Value {
	return &Value{Name: "default"}
}

func NewValueFromStruct(options Options) *Value {
	return &Value{Name: options.Name}
}

func TestRegisterAndNew(t *testing.T) {
	require.NoError(t, Register("test", "Value", NewValue))
	require.NoError(t, Register("test", "DefaultValue", NewDefaultValue))
	require.NoError(t, Register("test", "StructValue", NewValueFromStruct))

	tests := []struct {
		name     string
		typ      string
		options  any
		wantName string
		wantErr  bool
	}{
		{name: "pointer options", typ: "Value", options: &Options{Name: "a"}, wantName: "a"},
		{name: "value options to pointer param", typ: "Value", options: Options{Name: "b"}, wantName: "b"},
		{name: "map options", typ: "Value", options: map[string]any{"name": "c"}, wantName: "c"},
		{name: "nil options", typ: "Value", options: nil, wantErr: true},
		{name: "constructor error", typ: "Value", options: &Options{}, wantErr: true},
		{name: "no options", typ: "DefaultValue", options: nil, wantName: "default"},
		{name: "struct param from map", typ: "StructValue", options: map[string]any{"name": "d"}, wantName: "d"},
		{name: "not registered", typ: "Missing", options: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := New("test", tt.typ, tt.options)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, obj.(*Value).Name)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	require.NoError(t, Register("dup", "Value", NewValue))
	// 同一个函数重复注册忽略
	assert.NoError(t, Register("dup", "Value", NewValue))
	// 不同函数报错
	assert.Error(t, Register("dup", "Value", NewDefaultValue))
}

func TestRegister_InvalidConstructor(t *testing.T) {
	assert.Error(t, Register("bad", "NotFunc", 1))
	assert.Error(t, Register("bad", "TwoArgs", func(a, b int) int { return a + b }))
	assert.Error(t, Register("bad", "NoReturn", func() {}))
	assert.Error(t, Register("bad", "SecondNotError", func() (int, int) { return 1, 2 }))
}

func TestNewT(t *testing.T) {
	MustRegisterT[*Value](NewValue)

	v, err := NewT[*Value](map[string]any{"name": "typed", "timeout": "3s"})
	require.NoError(t, err)
	assert.Equal(t, "typed", v.Name)
	assert.Equal(t, 3*time.Second, v.Timeout)
}

type Namer interface {
	GetName() string
}

func (v *Value) GetName() string { return v.Name }

func TestNewWithTypeOptions(t *testing.T) {
	MustRegister("iface", "Value", NewValue)

	n, err := NewWithTypeOptions[Namer](&TypeOptions{
		Namespace: "iface",
		Type:      "Value",
		Options:   &Options{Name: "namer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "namer", n.GetName())

	_, err = NewWithTypeOptions[Namer](nil)
	assert.Error(t, err)

	_, err = NewWithTypeOptions[error](&TypeOptions{Namespace: "iface", Type: "Value", Options: &Options{Name: "x"}})
	assert.Error(t, err)
}
