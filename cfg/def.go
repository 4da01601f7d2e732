package cfg

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// SetDefaults 为结构体中零值字段设置 def tag 指定的默认值，嵌套结构体递归处理
func SetDefaults(object any) error {
	rv := reflect.ValueOf(object)
	if object == nil || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer")
	}
	return setDefaults(rv.Elem())
}

func setDefaults(rv reflect.Value) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}

		if fv.Kind() == reflect.Struct || (fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct) {
			if err := setDefaults(fv); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			continue
		}

		def, ok := field.Tag.Lookup("def")
		if !ok || !fv.IsZero() {
			continue
		}
		if err := setValue(fv, def); err != nil {
			return fmt.Errorf("failed to set default value for field %s: %w", field.Name, err)
		}
	}
	return nil
}

func setValue(fv reflect.Value, def string) error {
	if fv.Kind() == reflect.Ptr {
		fv.Set(reflect.New(fv.Type().Elem()))
		fv = fv.Elem()
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(def)
	case reflect.Bool:
		v, err := strconv.ParseBool(def)
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.Type() == durationType {
			d, err := time.ParseDuration(def)
			if err != nil {
				return err
			}
			fv.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(def, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(def, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(def, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	case reflect.Slice:
		parts := strings.Split(def, ",")
		slice := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		fv.Set(slice)
	default:
		return fmt.Errorf("unsupported type %v", fv.Type())
	}
	return nil
}
