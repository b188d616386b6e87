package table

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

// ToJSON renders every row as a JSON object, building keys in Spec
// column order rather than relying on map iteration order, so the output
// is deterministic and stable across Optimize (STRING and STRING_ENUM
// render identically).
func (t *Table) ToJSON() ([]byte, error) {
	n, err := t.spec.GetColumnCount()
	if err != nil {
		return nil, err
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		name, err := t.spec.GetColumnName(core.ColumnIndex(i))
		if err != nil {
			return nil, err
		}
		names[i] = name
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for row := 0; row < t.size; row++ {
		if row > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for i := 0; i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(names[i])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := t.writeCellJSON(&buf, core.ColumnIndex(i), core.RowIndex(row)); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (t *Table) writeCellJSON(buf *bytes.Buffer, col core.ColumnIndex, row core.RowIndex) error {
	ct, err := t.spec.GetColumnType(col)
	if err != nil {
		return err
	}
	switch ct {
	case spec.TypeInt:
		v, err := t.GetInt(col, row)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%d", v)
	case spec.TypeBool:
		v, err := t.GetBool(col, row)
		if err != nil {
			return err
		}
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case spec.TypeDate:
		v, err := t.GetDate(col, row)
		if err != nil {
			return err
		}
		writeJSONString(buf, time.Unix(v, 0).UTC().Format("2006-01-02 15:04:05"))
	case spec.TypeString:
		v, err := t.GetString(col, row)
		if err != nil {
			return err
		}
		writeJSONString(buf, v)
	case spec.TypeBinary:
		v, err := t.GetBinary(col, row)
		if err != nil {
			return err
		}
		writeJSONString(buf, hex.EncodeToString(v))
	case spec.TypeTable:
		sub, err := t.GetSubtable(col, row)
		if err != nil {
			return err
		}
		sj, err := sub.ToJSON()
		if err != nil {
			return err
		}
		buf.Write(sj)
	case spec.TypeMixed:
		return t.writeMixedJSON(buf, col, row)
	default:
		return fmt.Errorf("table: ToJSON: unsupported column type %v", ct)
	}
	return nil
}

func (t *Table) writeMixedJSON(buf *bytes.Buffer, col core.ColumnIndex, row core.RowIndex) error {
	v, err := t.GetMixed(col, row)
	if err != nil {
		return err
	}
	switch v.Kind {
	case column.MixedInt:
		fmt.Fprintf(buf, "%d", v.Int)
	case column.MixedBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case column.MixedDate:
		writeJSONString(buf, time.Unix(v.Date, 0).UTC().Format("2006-01-02 15:04:05"))
	case column.MixedString:
		writeJSONString(buf, v.Str)
	case column.MixedBinary:
		writeJSONString(buf, hex.EncodeToString(v.Bytes))
	case column.MixedTable:
		sub, err := t.GetMixedTable(col, row)
		if err != nil {
			return err
		}
		sj, err := sub.ToJSON()
		if err != nil {
			return err
		}
		buf.Write(sj)
	default:
		return fmt.Errorf("table: ToJSON: unsupported mixed kind %v", v.Kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
