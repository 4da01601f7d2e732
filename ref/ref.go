package ref

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// TypeOptions 描述一个可通过注册表构造的对象
// Namespace + Type 定位构造函数，Options 为构造函数的参数
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type"`
	Options   any    `cfg:"options"`
}

type constructor struct {
	fn           reflect.Value
	hasOptions   bool
	returnsError bool
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func newConstructor(fn any) (*constructor, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %T", fn)
	}

	ft := fv.Type()
	if ft.NumIn() > 1 {
		return nil, fmt.Errorf("constructor must have 0 or 1 input parameters, got %d", ft.NumIn())
	}
	if ft.NumOut() != 1 && ft.NumOut() != 2 {
		return nil, fmt.Errorf("constructor must have 1 or 2 return values, got %d", ft.NumOut())
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value must be error type")
	}

	return &constructor{
		fn:           fv,
		hasOptions:   ft.NumIn() == 1,
		returnsError: ft.NumOut() == 2,
	}, nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.hasOptions {
		arg, err := c.convertOptions(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	results := c.fn.Call(args)
	if c.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// convertOptions 将 options 转成构造函数的参数类型
// 已经是目标类型时直接使用，map 类型（通常来自配置文件）按 cfg tag 解码
func (c *constructor) convertOptions(options any) (reflect.Value, error) {
	paramType := c.fn.Type().In(0)

	if options == nil {
		return reflect.Zero(paramType), nil
	}

	ov := reflect.ValueOf(options)
	if ov.Type().AssignableTo(paramType) {
		return ov, nil
	}
	// 值类型传给指针参数
	if paramType.Kind() == reflect.Ptr && ov.Type().AssignableTo(paramType.Elem()) {
		pv := reflect.New(paramType.Elem())
		pv.Elem().Set(ov)
		return pv, nil
	}

	elemType := paramType
	if paramType.Kind() == reflect.Ptr {
		elemType = paramType.Elem()
	}
	target := reflect.New(elemType)
	if err := Decode(options, target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to convert options to %v: %w", paramType, err)
	}
	if paramType.Kind() == reflect.Ptr {
		return target, nil
	}
	return target.Elem(), nil
}

// Decode 将通用的 map/slice 数据按 cfg tag 解码到 object 中
func Decode(input any, object any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cfg",
		WeaklyTypedInput: true,
		Result:           object,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

var constructors sync.Map

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

// Register 注册构造函数
// 构造函数形如 func() T / func() (T, error) / func(*Options) T / func(*Options) (T, error)
// 同一个 key 重复注册同一个函数时忽略，注册不同函数时报错
func Register(namespace string, typ string, fn any) error {
	c, err := newConstructor(fn)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", key(namespace, typ), err)
	}

	if existing, ok := constructors.Load(key(namespace, typ)); ok {
		if existing.(*constructor).fn.Pointer() == c.fn.Pointer() {
			return nil
		}
		return fmt.Errorf("constructor for %s already registered with different function", key(namespace, typ))
	}

	constructors.Store(key(namespace, typ), c)
	return nil
}

// RegisterT 以 T 的包路径和类型名作为 namespace 和 type 注册
func RegisterT[T any](fn any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

// New 根据 namespace 和 type 构造对象
func New(namespace string, typ string, options any) (any, error) {
	value, ok := constructors.Load(key(namespace, typ))
	if !ok {
		return nil, fmt.Errorf("constructor not found for %s", key(namespace, typ))
	}
	return value.(*constructor).call(options)
}

// NewT 构造对象并断言为 T
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}

	obj, err := New(namespace, typ, options)
	if err != nil {
		return zero, err
	}

	result, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("created object %T is not of type %T", obj, zero)
	}
	return result, nil
}

// NewWithTypeOptions 按 TypeOptions 构造对象并断言为接口 I
func NewWithTypeOptions[I any](options *TypeOptions) (I, error) {
	var zero I
	if options == nil {
		return zero, fmt.Errorf("type options is nil")
	}

	obj, err := New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return zero, err
	}

	result, ok := obj.(I)
	if !ok {
		return zero, fmt.Errorf("%s does not implement %v", key(options.Namespace, options.Type), reflect.TypeOf((*I)(nil)).Elem())
	}
	return result, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", fmt.Errorf("cannot determine package path or type name for type %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
