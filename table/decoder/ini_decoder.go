package decoder

import (
	"strings"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// IniDecoder INI 格式，每个分组是一条记录，分组名可以重复
//
//	[pipe]
//	DN = 50
//	NPS = 2
//	SCH40 = 52.5
//
// 值都是字符串，空值表示该标准没有定义此尺寸
type IniDecoder struct{}

func NewIniDecoderWithOptions(options *Options) *IniDecoder {
	return &IniDecoder{}
}

func (d *IniDecoder) Decode(data []byte) ([]table.Record, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowNonUniqueSections:   true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "ini.LoadSources failed")
	}

	var columns []string
	var records []table.Record
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			if k, err := section.GetKey(ColumnsKey); err == nil {
				for _, c := range strings.Split(k.String(), ",") {
					if c = strings.TrimSpace(c); c != "" {
						columns = append(columns, c)
					}
				}
			}
			continue
		}

		var keys []string
		values := map[string]any{}
		for _, k := range section.Keys() {
			keys = append(keys, k.Name())
			values[k.Name()] = k.Value()
		}

		var r table.Record
		for _, k := range orderKeys(keys, columns) {
			r.Set(k, values[k])
		}
		records = append(records, r)
	}
	return records, nil
}
