package compile

import (
	"database/sql/driver"
	"encoding/hex"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/shipq/sequel/query"
)

// writeLiteral renders a Go value as a SQL literal for the dialect.
func (c *Compiler) writeLiteral(b *strings.Builder, val any) error {
	switch v := val.(type) {
	case nil:
		b.WriteString("NULL")
	case query.Expr:
		return c.writeExpr(b, v)
	case *query.AST:
		return c.writeSubquery(b, v)
	case query.Queryable:
		return c.writeSubquery(b, v.QueryAST())
	case string:
		c.writeString(b, v)
	case bool:
		b.WriteString(c.dialect.BoolLiteral(v))
	case int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int8:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint8:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case float32:
		return c.writeFloat(b, float64(v), 32)
	case float64:
		return c.writeFloat(b, v, 64)
	case *apd.Decimal:
		if v == nil {
			b.WriteString("NULL")
			return nil
		}
		return c.writeDecimal(b, v)
	case apd.Decimal:
		return c.writeDecimal(b, &v)
	case *big.Int:
		if v == nil {
			b.WriteString("NULL")
			return nil
		}
		b.WriteString(v.String())
	case *big.Float:
		if v == nil {
			b.WriteString("NULL")
			return nil
		}
		if v.IsInf() {
			return query.NewValueError(query.TypeMismatch, "literal", v, "infinite value has no SQL literal")
		}
		b.WriteString(v.Text('f', -1))
	case *big.Rat:
		if v == nil {
			b.WriteString("NULL")
			return nil
		}
		if v.IsInt() {
			b.WriteString(v.Num().String())
		} else {
			b.WriteString(v.FloatString(decimalPlaces(v)))
		}
	case time.Time:
		c.writeTime(b, v)
	case query.Date:
		d := time.Date(v.Year, v.Month, v.Day, 0, 0, 0, 0, time.UTC)
		if c.dialect.DatetimeKeywords {
			b.WriteString("DATE ")
		}
		b.WriteString("'")
		b.WriteString(d.Format(c.dialect.DateFormat))
		b.WriteString("'")
	case []byte:
		c.writeBlob(b, v)
	case uuid.UUID:
		c.writeString(b, v.String())
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return query.NewValueError(query.TypeMismatch, "literal", val, "value conversion failed: %v", err)
		}
		return c.writeLiteral(b, dv)
	case []any:
		return c.writeList(b, v)
	default:
		return c.writeReflected(b, val)
	}
	return nil
}

// writeReflected handles named types, pointers and typed slices.
func (c *Compiler) writeReflected(b *strings.Builder, val any) error {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("NULL")
			return nil
		}
		return c.writeLiteral(b, rv.Elem().Interface())
	case reflect.String:
		c.writeString(b, rv.String())
		return nil
	case reflect.Bool:
		b.WriteString(c.dialect.BoolLiteral(rv.Bool()))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		return c.writeFloat(b, rv.Float(), rv.Type().Bits())
	case reflect.Slice, reflect.Array:
		return c.writeList(b, sliceValues(val))
	}
	return query.NewValueError(query.TypeMismatch, "literal", val, "unsupported literal type %T", val)
}

func (c *Compiler) writeList(b *strings.Builder, values []any) error {
	b.WriteString("(")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeLiteral(b, v); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func (c *Compiler) writeString(b *strings.Builder, s string) {
	if c.dialect.UnicodeStrings {
		b.WriteString("N")
	}
	b.WriteString("'")
	if c.dialect.BackslashEscapes {
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '\'':
				b.WriteString("''")
			case '\\':
				b.WriteString(`\\`)
			case 0:
				b.WriteString(`\0`)
			default:
				b.WriteByte(s[i])
			}
		}
	} else {
		b.WriteString(strings.ReplaceAll(s, "'", "''"))
	}
	b.WriteString("'")
}

func (c *Compiler) writeFloat(b *strings.Builder, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return query.NewValueError(query.TypeMismatch, "literal", f, "non-finite float has no SQL literal")
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	return nil
}

func (c *Compiler) writeDecimal(b *strings.Builder, d *apd.Decimal) error {
	if d.Form != apd.Finite {
		return query.NewValueError(query.TypeMismatch, "literal", d.String(), "non-finite decimal has no SQL literal")
	}
	b.WriteString(d.Text('f'))
	return nil
}

func (c *Compiler) writeTime(b *strings.Builder, t time.Time) {
	if c.dialect.DatetimeKeywords {
		b.WriteString("TIMESTAMP ")
	}
	b.WriteString("'")
	b.WriteString(t.Format(c.dialect.TimestampFormat))
	b.WriteString("'")
}

func (c *Compiler) writeBlob(b *strings.Builder, data []byte) {
	h := hex.EncodeToString(data)
	switch c.dialect.Blob {
	case Blob0x:
		b.WriteString("0x")
		b.WriteString(h)
	case BlobBytea:
		b.WriteString(`'\x`)
		b.WriteString(h)
		b.WriteString("'::bytea")
	case BlobHexToRaw:
		b.WriteString("HEXTORAW('")
		b.WriteString(h)
		b.WriteString("')")
	default:
		b.WriteString("X'")
		b.WriteString(h)
		b.WriteString("'")
	}
}

// decimalPlaces is the number of digits needed to print r exactly, capped
// for non-terminating fractions.
func decimalPlaces(r *big.Rat) int {
	den := new(big.Int).Set(r.Denom())
	n := 0
	two, five := big.NewInt(2), big.NewInt(5)
	mod := new(big.Int)
	for n < 30 {
		twos := mod.Mod(den, two).Sign() == 0
		if twos {
			den.Div(den, two)
		}
		fives := mod.Mod(den, five).Sign() == 0
		if fives {
			den.Div(den, five)
		}
		if !twos && !fives {
			break
		}
		n++
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return 30
	}
	return n
}

func isSliceValue(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		return true
	case reflect.Array:
		// Fixed-size byte arrays such as UUIDs are scalars.
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}

func sliceValues(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
