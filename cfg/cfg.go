package cfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hatlonely/pipesize/ref"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Load 从文件加载配置到 object
// 根据文件后缀选择解码格式：
//
//	.json -> json
//	.yaml/.yml -> yaml
//	.toml -> toml
//	.ini -> ini
//
// 解码后依次设置 def 默认值并执行 validate 校验
func Load(filename string, object any) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	format, err := FormatOf(filename)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "os.ReadFile failed")
	}

	return errors.WithMessagef(Unmarshal(data, format, object), "load %s failed", filename)
}

// FormatOf 根据文件后缀返回配置格式
func FormatOf(filename string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	case ".ini":
		return "ini", nil
	default:
		return "", errors.Errorf("unsupported file extension: %q", ext)
	}
}

// Unmarshal 按 format 解码 data 到 object，并设置默认值和校验
func Unmarshal(data []byte, format string, object any) error {
	m, err := decode(data, format)
	if err != nil {
		return err
	}

	if err := ref.Decode(m, object); err != nil {
		return errors.Wrap(err, "convert config failed")
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "SetDefaults failed")
	}
	if err := ValidateStruct(object); err != nil {
		return errors.Wrap(err, "validate config failed")
	}
	return nil
}

func decode(data []byte, format string) (map[string]any, error) {
	m := map[string]any{}

	switch format {
	case "json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "json.Unmarshal failed")
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "yaml.Unmarshal failed")
		}
	case "toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "toml.Unmarshal failed")
		}
	case "ini":
		f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true, SpaceBeforeInlineComment: true}, data)
		if err != nil {
			return nil, errors.Wrap(err, "ini.LoadSources failed")
		}
		// 默认分组的 key 放在顶层，其它分组作为嵌套对象，分组名支持 a.b 形式
		for _, section := range f.Sections() {
			values := map[string]any{}
			for _, k := range section.Keys() {
				values[k.Name()] = k.Value()
			}
			if section.Name() == ini.DefaultSection {
				for k, v := range values {
					m[k] = v
				}
				continue
			}
			setPath(m, strings.Split(section.Name(), "."), values)
		}
	default:
		return nil, errors.Errorf("unsupported format: %q", format)
	}

	return m, nil
}

func setPath(m map[string]any, path []string, values map[string]any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	last := path[len(path)-1]
	if existing, ok := m[last].(map[string]any); ok {
		for k, v := range values {
			existing[k] = v
		}
		return
	}
	m[last] = values
}
