package partition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/arrestview/arrestview/internal/table"
)

// indexColumnPrefix marks index columns written by pandas; they carry no data.
const indexColumnPrefix = "__index_level_"

// julianUnixEpoch is the Julian day number of 1970-01-01, used by INT96 timestamps.
const julianUnixEpoch = 2440588

const readBatchSize = 1000

// valueKind describes how a parquet leaf column is converted into a table column.
type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindFloat
	kindDate
	kindTimestampMillis
	kindTimestampMicros
	kindTimestampNanos
	kindTimestampInt96
)

func (k valueKind) numeric() bool { return k == kindFloat }

// Decode reads a parquet file into a table. Every flat leaf column becomes a
// column of the table; nested and repeated columns are skipped.
func Decode(r io.ReaderAt, size int64) (*table.Table, error) {
	return decode(context.Background(), r, size)
}

func decode(ctx context.Context, r io.ReaderAt, size int64) (*table.Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	numRows := int(pf.NumRows())

	leaves := schema.Columns()
	byIndex := make([]*columnDecoder, len(leaves))
	var decoders []*columnDecoder
	for _, path := range leaves {
		if len(path) != 1 || strings.HasPrefix(path[0], indexColumnPrefix) {
			continue
		}
		leaf, ok := schema.Lookup(path...)
		if !ok || leaf.MaxRepetitionLevel > 0 {
			continue
		}
		d := newColumnDecoder(path[0], classify(leaf.Node.Type()), numRows)
		byIndex[leaf.ColumnIndex] = d
		decoders = append(decoders, d)
	}

	row := 0
	buf := make([]parquet.Row, readBatchSize)
	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for _, values := range buf[:n] {
				for _, v := range values {
					c := v.Column()
					if c < 0 || c >= len(byIndex) || byIndex[c] == nil {
						continue
					}
					if d := byIndex[c]; d.len() == row {
						d.append(v)
					}
				}
				for _, d := range decoders {
					if d.len() == row {
						d.appendNull()
					}
				}
				row++
			}

			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				_ = rows.Close()
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
		_ = rows.Close()
	}

	fields := make([]table.Field, 0, len(decoders))
	for _, d := range decoders {
		fields = append(fields, table.Field{Name: d.name, Column: d.build()})
	}
	if len(fields) == 0 {
		return table.Empty(), nil
	}
	return table.New(fields...)
}

// classify maps a parquet physical and logical type to a value kind. Columns
// with the NULL logical type hold no values and decode as strings whatever
// their physical type.
func classify(t parquet.Type) valueKind {
	lt := t.LogicalType()
	if lt != nil && lt.Unknown != nil {
		return kindString
	}
	switch t.Kind() {
	case parquet.Boolean:
		return kindBool
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return kindDate
		}
		return kindFloat
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			switch {
			case lt.Timestamp.Unit.Millis != nil:
				return kindTimestampMillis
			case lt.Timestamp.Unit.Micros != nil:
				return kindTimestampMicros
			default:
				return kindTimestampNanos
			}
		}
		return kindFloat
	case parquet.Int96:
		return kindTimestampInt96
	case parquet.Float, parquet.Double:
		return kindFloat
	default:
		return kindString
	}
}

type columnDecoder struct {
	name string
	kind valueKind
	str  *table.StringBuilder
	num  *table.Float64Builder
}

func newColumnDecoder(name string, kind valueKind, capacity int) *columnDecoder {
	d := &columnDecoder{name: name, kind: kind}
	if kind.numeric() {
		d.num = table.NewFloat64Builder(capacity)
	} else {
		d.str = table.NewStringBuilder(capacity)
	}
	return d
}

func (d *columnDecoder) len() int {
	if d.num != nil {
		return d.num.Len()
	}
	return d.str.Len()
}

func (d *columnDecoder) appendNull() {
	if d.num != nil {
		d.num.AppendNull()
		return
	}
	d.str.AppendNull()
}

func (d *columnDecoder) append(v parquet.Value) {
	if v.IsNull() {
		d.appendNull()
		return
	}

	switch d.kind {
	case kindFloat:
		var f float64
		switch v.Kind() {
		case parquet.Int32:
			f = float64(v.Int32())
		case parquet.Int64:
			f = float64(v.Int64())
		case parquet.Float:
			f = float64(v.Float())
		default:
			f = v.Double()
		}
		// NaN and infinities have no JSON encoding.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			d.num.AppendNull()
			return
		}
		d.num.Append(f)
	case kindBool:
		d.str.Append(strconv.FormatBool(v.Boolean()))
	case kindDate:
		d.str.Append(time.Unix(int64(v.Int32())*86400, 0).UTC().Format(time.DateOnly))
	case kindTimestampMillis:
		d.str.Append(formatTime(time.UnixMilli(v.Int64())))
	case kindTimestampMicros:
		d.str.Append(formatTime(time.UnixMicro(v.Int64())))
	case kindTimestampNanos:
		d.str.Append(formatTime(time.Unix(0, v.Int64())))
	case kindTimestampInt96:
		i := v.Int96()
		nanos := int64(uint64(i[1])<<32 | uint64(i[0]))
		days := int64(i[2]) - julianUnixEpoch
		d.str.Append(formatTime(time.Unix(days*86400, nanos)))
	default:
		switch v.Kind() {
		case parquet.ByteArray, parquet.FixedLenByteArray:
			// Copy: the bytes belong to the reader's buffer.
			d.str.Append(string(v.ByteArray()))
		default:
			d.str.Append(v.String())
		}
	}
}

func (d *columnDecoder) build() table.Column {
	if d.num != nil {
		return d.num.Build()
	}
	return d.str.Build()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
