package decoder

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

// CsvDecoder CSV 格式，第一行为列名，值都是字符串
type CsvDecoder struct {
	comma     rune
	trimSpace bool
}

type CsvDecoderOptions struct {
	Comma     string `cfg:"comma" def:","`
	TrimSpace bool   `cfg:"trimSpace"`
}

func NewCsvDecoderWithOptions(options *CsvDecoderOptions) (*CsvDecoder, error) {
	if options == nil {
		options = &CsvDecoderOptions{}
	}
	comma := ','
	if options.Comma != "" {
		r := []rune(options.Comma)
		if len(r) != 1 {
			return nil, errors.Errorf("comma must be a single character, got %q", options.Comma)
		}
		comma = r[0]
	}
	return &CsvDecoder{comma: comma, trimSpace: options.TrimSpace}, nil
}

func (d *CsvDecoder) Decode(data []byte) ([]table.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = d.comma
	reader.TrimLeadingSpace = d.trimSpace

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header failed")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []table.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d failed", line)
		}

		var r table.Record
		for i, column := range header {
			v := row[i]
			if d.trimSpace {
				v = strings.TrimSpace(v)
			}
			r.Set(column, v)
		}
		records = append(records, r)
	}
	return records, nil
}

func (d *CsvDecoder) Encode(records []table.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = d.comma

	columns := columnsOf(records)
	if err := w.Write(columns); err != nil {
		return nil, errors.Wrap(err, "write csv header failed")
	}
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			if v, ok := r.Get(c); ok {
				row[i] = table.FormatValue(v)
			}
		}
		if err := w.Write(row); err != nil {
			return nil, errors.Wrap(err, "write csv row failed")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "csv flush failed")
	}
	return buf.Bytes(), nil
}
