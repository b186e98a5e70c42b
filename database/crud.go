package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// Row is one resource record keyed by column name.
type Row map[string]any

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (r *Resource) columns() string {
	cols := make([]string, 0, len(r.Fields)+3)
	cols = append(cols, quote("id"))
	for _, f := range r.Fields {
		cols = append(cols, quote(f.Name))
	}
	cols = append(cols, quote("created_at"), quote("updated_at"))
	return strings.Join(cols, ",")
}

// List returns all rows of res. A non-blank search keeps rows where any
// searchable field contains it, ignoring ASCII case.
func (db *DB) List(ctx context.Context, res *Resource, search string) ([]Row, error) {
	var (
		where []string
		args  []any
	)
	if search = strings.TrimSpace(search); search != "" {
		for _, f := range res.Fields {
			if f.Search {
				where = append(where, quote(f.Name)+` LIKE '%' || ? || '%'`)
				args = append(args, search)
			}
		}
	}

	query := "SELECT " + res.columns() + " FROM " + quote(res.Table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " OR ")
	}
	if res.OrderBy != "" {
		query += " ORDER BY " + quote(res.OrderBy) + ", rowid"
	}

	logger.Logtype(logger.StrDebug, 1).Str(logger.StrQuery, query).Interface("args", args).Msg("list")
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "list", "query failed", res.Name, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, res)
		if err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "list", "scan failed", res.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "list", "iteration failed", res.Name, err)
	}
	return out, nil
}

// Get returns the row with id or a NOTFOUND error.
func (db *DB) Get(ctx context.Context, res *Resource, id string) (Row, error) {
	query := "SELECT " + res.columns() + " FROM " + quote(res.Table) + " WHERE id = ?"
	rows, err := db.QueryxContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "get", "query failed", res.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "get", "query failed", res.Name, err)
		}
		return nil, notFound("get", res, id)
	}
	row, err := scanRow(rows, res)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "get", "scan failed", res.Name, err)
	}
	return row, nil
}

// Create inserts a row built from the known fields of values. Unknown keys
// are ignored; a missing required field is a VALIDATION error.
func (db *DB) Create(ctx context.Context, res *Resource, values map[string]any) (Row, error) {
	cols := []string{quote("id"), quote("created_at"), quote("updated_at")}
	now := time.Now().UTC()
	id := uuid.NewString()
	args := []any{id, now, now}

	for _, f := range res.Fields {
		raw, ok := values[f.Name]
		if f.Required && (!ok || strings.TrimSpace(textValue(raw)) == "") {
			return nil, apperrors.New(apperrors.ErrClassValidation, "create", "missing required field").
				WithContext("resource", res.Name).WithContext("field", f.Name)
		}
		if !ok {
			continue
		}
		v, err := toDB(f, raw)
		if err != nil {
			return nil, validation("create", res, f, err)
		}
		cols = append(cols, quote(f.Name))
		args = append(args, v)
	}

	query := "INSERT INTO " + quote(res.Table) + " (" + strings.Join(cols, ",") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "create", "insert failed", res.Name, err)
	}
	return db.Get(ctx, res, id)
}

// Update writes the known fields of values to the row with id.
func (db *DB) Update(ctx context.Context, res *Resource, id string, values map[string]any) (Row, error) {
	sets := []string{quote("updated_at") + " = ?"}
	args := []any{time.Now().UTC()}
	for _, f := range res.Fields {
		raw, ok := values[f.Name]
		if !ok {
			continue
		}
		if f.Required && strings.TrimSpace(textValue(raw)) == "" {
			return nil, validation("update", res, f, errors.New("must not be empty"))
		}
		v, err := toDB(f, raw)
		if err != nil {
			return nil, validation("update", res, f, err)
		}
		sets = append(sets, quote(f.Name)+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := "UPDATE " + quote(res.Table) + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "update", "update failed", res.Name, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, notFound("update", res, id)
	}
	return db.Get(ctx, res, id)
}

// Delete removes the row with id.
func (db *DB) Delete(ctx context.Context, res *Resource, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM "+quote(res.Table)+" WHERE id = ?", id)
	if err != nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "delete", "delete failed", res.Name, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("delete", res, id)
	}
	return nil
}

// FindBy returns the first row whose field equals value.
func (db *DB) FindBy(ctx context.Context, res *Resource, field, value string) (Row, error) {
	if _, ok := res.Field(field); !ok {
		return nil, apperrors.New(apperrors.ErrClassValidation, "find", "unknown field").WithContext("field", field)
	}
	var id string
	err := db.GetContext(ctx, &id, "SELECT id FROM "+quote(res.Table)+" WHERE "+quote(field)+" = ? LIMIT 1", value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("find", res, value)
	}
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "find", "query failed", res.Name, err)
	}
	return db.Get(ctx, res, id)
}

func notFound(op string, res *Resource, id string) error {
	return apperrors.New(apperrors.ErrClassNotFound, op, "record not found").
		WithContext("resource", res.Name).WithContext("id", id)
}

func validation(op string, res *Resource, f Field, err error) error {
	return apperrors.WrapWithMessageFor(apperrors.ErrClassValidation, op, "invalid value", f.Name, err).
		WithContext("resource", res.Name)
}

func scanRow(rows *sqlx.Rows, res *Resource) (Row, error) {
	raw := make(map[string]any)
	if err := rows.MapScan(raw); err != nil {
		return nil, err
	}
	row := Row{
		"id":         textValue(raw["id"]),
		"created_at": timeValue(raw["created_at"]),
		"updated_at": timeValue(raw["updated_at"]),
	}
	for _, f := range res.Fields {
		row[f.Name] = fromDB(f, raw[f.Name])
	}
	return row, nil
}

func textValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(tv)
	case string:
		return tv
	case time.Time:
		return tv.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func timeValue(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC()
	case nil:
		return nil
	}
	s := textValue(v)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return s
}

func fromDB(f Field, v any) any {
	switch f.Kind {
	case KindInt:
		switch tv := v.(type) {
		case int64:
			return tv
		case nil:
			return int64(0)
		}
		n, _ := strconv.ParseInt(textValue(v), 10, 64)
		return n
	case KindBool:
		switch tv := v.(type) {
		case int64:
			return tv != 0
		case bool:
			return tv
		}
		b, _ := strconv.ParseBool(textValue(v))
		return b
	case KindList:
		var list []string
		if s := textValue(v); s != "" {
			if err := json.Unmarshal([]byte(s), &list); err != nil {
				list = splitList(s)
			}
		}
		if list == nil {
			list = []string{}
		}
		return list
	case KindTime:
		return timeValue(v)
	}
	return textValue(v)
}

func toDB(f Field, v any) (any, error) {
	switch f.Kind {
	case KindInt:
		switch tv := v.(type) {
		case nil:
			return int64(0), nil
		case int:
			return int64(tv), nil
		case int64:
			return tv, nil
		case float64:
			return int64(tv), nil
		}
		s := strings.TrimSpace(textValue(v))
		if s == "" {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case KindBool:
		switch tv := v.(type) {
		case bool:
			return tv, nil
		case nil:
			return false, nil
		}
		s := strings.ToLower(strings.TrimSpace(textValue(v)))
		return s == "1" || s == "true" || s == "on" || s == "yes", nil
	case KindList:
		var list []string
		switch tv := v.(type) {
		case nil:
		case []string:
			list = tv
		case []any:
			for _, item := range tv {
				list = append(list, textValue(item))
			}
		default:
			list = splitList(textValue(v))
		}
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case KindTime:
		switch tv := v.(type) {
		case nil:
			return nil, nil
		case time.Time:
			return tv.UTC(), nil
		}
		s := strings.TrimSpace(textValue(v))
		if s == "" {
			return nil, nil
		}
		t, ok := timeValue(s).(time.Time)
		if !ok {
			return nil, fmt.Errorf("invalid time %q", s)
		}
		return t, nil
	}
	return textValue(v), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
