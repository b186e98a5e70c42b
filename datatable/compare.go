package datatable

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Stringify renders a cell value as plain text. nil renders as "".
func Stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case []byte:
		return string(tv)
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case time.Time:
		if tv.IsZero() {
			return ""
		}
		if tv.Hour() == 0 && tv.Minute() == 0 && tv.Second() == 0 && tv.Nanosecond() == 0 {
			return tv.Format(dateLayout)
		}
		return tv.Format(time.RFC3339)
	case []string:
		return strings.Join(tv, ", ")
	case []any:
		parts := make([]string, 0, len(tv))
		for _, item := range tv {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return tv.String()
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Values of different kinds order by rank: nil < bool < number < time < string < other.
const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalize coerces v according to the column type. Number columns parse
// numeric strings, date columns parse date strings, and a blank string in
// either ranks as nil. Text columns keep strings untouched.
func normalize(v any, typ ColumnType) (any, int) {
	if s, ok := v.(string); ok && (typ == TypeNumber || typ == TypeDate) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, rankNil
		}
		if typ == TypeNumber {
			if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
				return f, rankNumber
			}
		} else if t, ok := parseDate(s); ok {
			return t, rankTime
		}
	}

	switch tv := v.(type) {
	case nil:
		return nil, rankNil
	case bool:
		return tv, rankBool
	case time.Time:
		return tv, rankTime
	case *time.Time:
		if tv == nil {
			return nil, rankNil
		}
		return *tv, rankTime
	case string:
		return tv, rankString
	}
	if f, ok := toFloat(v); ok {
		return f, rankNumber
	}
	return v, rankOther
}

// Compare is a three-way comparison of two cell values of a column of type
// typ. It returns -1, 0 or 1.
func Compare(a, b any, typ ColumnType) int {
	av, ar := normalize(a, typ)
	bv, br := normalize(b, typ)
	if ar != br {
		return cmpInt(ar, br)
	}

	switch ar {
	case rankNil:
		return 0
	case rankBool:
		ab, bb := av.(bool), bv.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case rankNumber:
		af, bf := av.(float64), bv.(float64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case rankTime:
		return av.(time.Time).Compare(bv.(time.Time))
	case rankString:
		return strings.Compare(av.(string), bv.(string))
	}
	return strings.Compare(Stringify(av), Stringify(bv))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
