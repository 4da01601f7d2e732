package loader

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/hatlonely/pipesize/log"
	"github.com/hatlonely/pipesize/log/logger"
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormLoaderOptions struct {
	// 数据库驱动：sqlite, mysql
	Driver string `cfg:"driver" validate:"required,oneof=sqlite mysql"`
	DSN    string `cfg:"dsn" validate:"required"`
	// 参考表所在的数据库表
	TableName string `cfg:"tableName" def:"pipe_sizes" validate:"required"`
	// 读取的列，顺序即参考表的列顺序；为空时读取全部列
	Columns []string `cfg:"columns"`
	// 排序，决定查询时"第一条匹配"的记录
	OrderBy string `cfg:"orderBy"`
}

// GormLoader 从数据库表读取参考表，数据库只读，连接在加载后关闭
type GormLoader struct {
	db        *gorm.DB
	tableName string
	columns   []string
	orderBy   string
	logger    logger.Logger
}

var (
	identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// 逗号分隔的列名，每列可带 ASC/DESC
	orderByRegexp = regexp.MustCompile(`(?i)^\s*[A-Za-z_][A-Za-z0-9_]*(\s+(ASC|DESC))?(\s*,\s*[A-Za-z_][A-Za-z0-9_]*(\s+(ASC|DESC))?)*\s*$`)
)

func NewGormLoaderWithOptions(options *GormLoaderOptions) (*GormLoader, error) {
	if options == nil {
		return nil, errors.New("gorm loader options is required")
	}
	if options.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	if options.TableName == "" {
		options.TableName = "pipe_sizes"
	}
	if !identifierRegexp.MatchString(options.TableName) {
		return nil, errors.Errorf("invalid table name %q", options.TableName)
	}
	if options.OrderBy != "" && !orderByRegexp.MatchString(options.OrderBy) {
		return nil, errors.Errorf("invalid order by %q", options.OrderBy)
	}
	for _, c := range options.Columns {
		if !identifierRegexp.MatchString(c) {
			return nil, errors.Errorf("invalid column name %q", c)
		}
	}

	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var db *gorm.DB
	var err error
	switch options.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(options.DSN), gormConfig)
	case "mysql":
		db, err = gorm.Open(mysql.Open(options.DSN), gormConfig)
	default:
		return nil, errors.Errorf("unsupported database driver: %q", options.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}

	return &GormLoader{
		db:        db,
		tableName: options.TableName,
		columns:   options.Columns,
		orderBy:   options.OrderBy,
		logger:    log.Default().WithGroup("gormLoader").With("driver", options.Driver, "tableName", options.TableName),
	}, nil
}

func (l *GormLoader) Load(ctx context.Context) ([]table.Record, error) {
	query := l.db.WithContext(ctx).Table(l.tableName)
	if len(l.columns) > 0 {
		query = query.Select(l.columns)
	}
	if l.orderBy != "" {
		query = query.Order(l.orderBy)
	}

	rows, err := query.Rows()
	if err != nil {
		return nil, errors.Wrap(err, "query rows failed")
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("rows loaded", "rows", len(records))
	return records, nil
}

// Close 关闭数据库连接
func (l *GormLoader) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB failed")
	}
	return sqlDB.Close()
}

func scanRecords(rows *sql.Rows) ([]table.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "rows.Columns failed")
	}

	var records []table.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "rows.Scan failed")
		}

		var r table.Record
		for i, c := range columns {
			v := values[i]
			// mysql 驱动将文本和 DECIMAL 返回为 []byte
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			r.Set(c, v)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows.Err failed")
	}
	return records, nil
}
