package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/table"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestLoadFile(t *testing.T) {
	Convey("从文件加载参考表", t, func() {
		ctx := context.Background()

		Convey("json 文件", func() {
			tbl, err := LoadFile(ctx, "testdata/pipe_sizes.json")
			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, 19)

			columns, err := tbl.Columns()
			So(err, ShouldBeNil)
			So(columns, ShouldResemble, []string{"DN", "NPS", "SCH40", "SCH80", "SCH160"})

			d, err := tbl.ResolveDiameter("DN", "50", "SCH40")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 52.5)

			_, err = tbl.ResolveDiameter("DN", "400", "SCH160")
			So(errors.Is(err, table.ErrNoMatch), ShouldBeTrue)
		})

		Convey("文件不存在", func() {
			_, err := LoadFile(ctx, "testdata/missing.json")
			So(err, ShouldNotBeNil)
		})

		Convey("不支持的后缀", func() {
			_, err := LoadFile(ctx, "testdata/pipe_sizes.txt")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoadTable_Strict(t *testing.T) {
	ctx := context.Background()

	options := &Options{
		Loader: ref.TypeOptions{
			Type:    "FileLoader",
			Options: map[string]any{"filePath": "testdata/conflict.csv"},
		},
		DimensionCount: 2,
	}

	tbl, err := LoadTable(ctx, options)
	require.NoError(t, err)
	d, err := tbl.ResolveDiameter("DN", "50", "SCH40")
	require.NoError(t, err)
	assert.Equal(t, 52.5, d)

	options.Strict = true
	_, err = LoadTable(ctx, options)
	var issuesErr *table.IssuesError
	require.ErrorAs(t, err, &issuesErr)
	assert.NotEmpty(t, issuesErr.Issues)

	_, err = LoadTable(ctx, nil)
	assert.Error(t, err)

	_, err = LoadTable(ctx, &Options{Loader: ref.TypeOptions{Type: "UnknownLoader"}})
	assert.Error(t, err)
}

func TestFileLoader_Decoder(t *testing.T) {
	l, err := NewFileLoaderWithOptions(&FileLoaderOptions{
		FilePath: "testdata/pipe_sizes.json",
		Decoder:  &ref.TypeOptions{Type: "JsonDecoder", Options: map[string]any{"rootKey": "pipe_sizes_lib"}},
	})
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 19)

	_, err = NewFileLoaderWithOptions(&FileLoaderOptions{})
	assert.Error(t, err)
}

func newSqliteTable(t *testing.T) string {
	dsn := filepath.Join(t.TempDir(), "pipes.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE pipe_sizes (id INTEGER PRIMARY KEY, DN TEXT, NPS TEXT, SCH40 REAL, SCH80 REAL)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO pipe_sizes (id, DN, NPS, SCH40, SCH80) VALUES
		(1, '15', '1/2', 15.8, 13.9),
		(2, '50', '2', 52.5, 49.3),
		(3, '80', '3', 77.9, NULL)`).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return dsn
}

func TestGormLoader(t *testing.T) {
	dsn := newSqliteTable(t)

	Convey("从 sqlite 读取参考表", t, func() {
		l, err := NewGormLoaderWithOptions(&GormLoaderOptions{
			Driver:    "sqlite",
			DSN:       dsn,
			TableName: "pipe_sizes",
			Columns:   []string{"DN", "NPS", "SCH40", "SCH80"},
			OrderBy:   "id",
		})
		So(err, ShouldBeNil)
		defer l.Close()

		tbl, err := Build(context.Background(), l, 2, true)
		So(err, ShouldBeNil)
		So(tbl.Len(), ShouldEqual, 3)

		columns, _ := tbl.Columns()
		So(columns, ShouldResemble, []string{"DN", "NPS", "SCH40", "SCH80"})

		d, err := tbl.ResolveDiameter("NPS", "2", "SCH80")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, 49.3)

		_, err = tbl.ResolveDiameter("DN", "80", "SCH80")
		So(errors.Is(err, table.ErrNoMatch), ShouldBeTrue)
	})

	Convey("通过 TypeOptions 创建", t, func() {
		tbl, err := LoadTable(context.Background(), &Options{
			Loader: ref.TypeOptions{
				Type: "GormLoader",
				Options: map[string]any{
					"driver":    "sqlite",
					"dsn":       dsn,
					"tableName": "pipe_sizes",
					"columns":   "DN,NPS,SCH40,SCH80",
					"orderBy":   "id",
				},
			},
		})
		So(err, ShouldBeNil)
		sizes, err := tbl.DistinctValues("DN")
		So(err, ShouldBeNil)
		So(sizes, ShouldResemble, []string{"15", "50", "80"})
	})
}

func TestNewGormLoaderWithOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		options *GormLoaderOptions
	}{
		{"nil options", nil},
		{"empty dsn", &GormLoaderOptions{Driver: "sqlite"}},
		{"unsupported driver", &GormLoaderOptions{Driver: "oracle", DSN: "x"}},
		{"invalid table name", &GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", TableName: "pipes; DROP TABLE x"}},
		{"invalid column name", &GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", Columns: []string{"DN", "1=1"}}},
		{"order by injection", &GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", OrderBy: "id; DROP TABLE pipe_sizes"}},
		{"order by expression", &GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", OrderBy: "(SELECT 1)"}},
		{"order by unknown direction", &GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", OrderBy: "id UP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGormLoaderWithOptions(tt.options)
			assert.Error(t, err)
		})
	}

	for _, orderBy := range []string{"id", "id DESC", "DN asc, id desc", " SCH40 , id "} {
		l, err := NewGormLoaderWithOptions(&GormLoaderOptions{Driver: "sqlite", DSN: ":memory:", OrderBy: orderBy})
		require.NoError(t, err, orderBy)
		require.NoError(t, l.Close())
	}
}

func TestFileLoader_OnChange(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pipes.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"DN": "50", "NPS": "2", "SCH40": 52.5}]`), 0644))

	l, err := NewFileLoaderWithOptions(&FileLoaderOptions{FilePath: file})
	require.NoError(t, err)
	defer l.Close()

	rows := make(chan int, 16)
	require.NoError(t, l.OnChange(context.Background(), func(records []table.Record, err error) {
		if err == nil {
			rows <- len(records)
		}
	}))
	assert.Equal(t, 1, <-rows)

	require.NoError(t, os.WriteFile(file, []byte(`[{"DN": "50", "NPS": "2", "SCH40": 52.5}, {"DN": "80", "NPS": "3", "SCH40": 77.9}]`), 0644))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case n := <-rows:
			if n == 2 {
				require.NoError(t, l.Close())
				return
			}
		case <-timeout:
			t.Fatal("no reload after file change")
		}
	}
}
