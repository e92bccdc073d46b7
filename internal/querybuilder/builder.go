// Package querybuilder はテーブル名とカラム→値の対応から
// PostgreSQL向けのパラメータ化ステートメント（$n プレースホルダ）を組み立てる。
//
// 値は必ず引数リストに載せ、ステートメント文字列へ連結しない。
// 引数リストの順序はステートメント中のプレースホルダの出現順と常に一致する。
// NULLはプレースホルダを消費せず、述語では "col IS NULL"、INSERTでは
// リテラルNULL、UPDATEのSETでは "col = NULL" として埋め込む。
//
// テーブル名・カラム名の妥当性は検証しない。呼び出し側はコード中に固定された
// 既知の識別子だけを渡す契約であり、外部入力を識別子として渡してはならない。
package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPredicate はWHERE句の述語が1つもないDELETEを組み立てようとした場合のエラー。
	// テーブル全体の削除を防ぐ。
	ErrEmptyPredicate = errors.New("querybuilder: delete requires at least one predicate")

	// ErrEmptyAssignment はSET句が空になるUPDATEを組み立てようとした場合のエラー。
	ErrEmptyAssignment = errors.New("querybuilder: update requires at least one assignment")
)

// Op は述語の比較演算子。
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLt  Op = "<"
)

// Field はカラム名、比較演算子、値の組。
// INSERTとUPDATEのSET句ではOpは使われない。
type Field struct {
	Column string
	Op     Op
	Value  Value
}

// Fields はFieldの順序付きリスト。ステートメント中のカラム順はこの順序に従う。
type Fields []Field

// Eq は等値比較のFieldを返す。
func Eq(column string, v any) Field {
	return Field{Column: column, Op: OpEq, Value: Concrete(v)}
}

// IsNull はNULL一致のFieldを返す。
func IsNull(column string) Field {
	return Field{Column: column, Op: OpEq, Value: Null()}
}

// Opt はpがnilなら無視され、そうでなければ等値比較となるFieldを返す。
func Opt[T any](column string, p *T) Field {
	return Field{Column: column, Op: OpEq, Value: Optional(p)}
}

// Gte は "column >= $n" のFieldを返す。
func Gte(column string, v any) Field {
	return Field{Column: column, Op: OpGte, Value: Concrete(v)}
}

// Lt は "column < $n" のFieldを返す。
func Lt(column string, v any) Field {
	return Field{Column: column, Op: OpLt, Value: Concrete(v)}
}

// present はAbsentを取り除いたFieldsを返す。
func (fs Fields) present() Fields {
	out := make(Fields, 0, len(fs))
	for _, f := range fs {
		if f.Value.IsAbsent() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Statement は組み立て済みのSQL文と位置引数。
type Statement struct {
	SQL  string
	Args []any
}

// Append はステートメント末尾に句を追加したStatementを返す。
// RETURNING、ORDER BY、ON CONFLICTなど値を含まない句に使う。
func (s Statement) Append(clause string) Statement {
	s.SQL = s.SQL + " " + clause
	return s
}

// Placeholders はステートメントが参照するプレースホルダ数を返す。
func (s Statement) Placeholders() int {
	return len(s.Args)
}

// argList はプレースホルダ番号の採番と引数の蓄積を行う。
type argList struct {
	args []any
}

func (a *argList) next(v any) string {
	a.args = append(a.args, v)
	return "$" + strconv.Itoa(len(a.args))
}

// Insert は "INSERT INTO table (cols) VALUES (...)" を組み立てる。
// Null値はカラムを列挙したうえでVALUES側にリテラルNULLを置く。
func Insert(table string, fields Fields) Statement {
	fs := fields.present()
	var args argList
	cols := make([]string, len(fs))
	vals := make([]string, len(fs))
	for i, f := range fs {
		cols[i] = f.Column
		if f.Value.IsNull() {
			vals[i] = "NULL"
			continue
		}
		vals[i] = args.next(f.Value.Interface())
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(vals, ", "))
	b.WriteString(")")

	return Statement{SQL: b.String(), Args: args.args}
}

// Select は "SELECT cols FROM table[ WHERE ...]" を組み立てる。
// columnsが空の場合は "*" を使う。
// whereが空（Absentのみを含む場合も含む）の場合はWHERE句を出力せず全行が対象になる。
// 全件取得を意図しない呼び出し側は、空のフィルタで呼ばないよう自前で確認すること。
func Select(table string, columns []string, where Fields) Statement {
	var args argList
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(columns, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(table)
	writeWhere(&b, &args, where.present())

	return Statement{SQL: b.String(), Args: args.args}
}

// Delete は "DELETE FROM table WHERE ..." を組み立てる。
// 述語が1つも残らない場合はErrEmptyPredicateを返す。
func Delete(table string, where Fields) (Statement, error) {
	preds := where.present()
	if len(preds) == 0 {
		return Statement{}, ErrEmptyPredicate
	}

	var args argList
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(table)
	writeWhere(&b, &args, preds)

	return Statement{SQL: b.String(), Args: args.args}, nil
}

// Update は "UPDATE table SET ... WHERE ..." を組み立てる。
// SET句のプレースホルダは$1..$k、WHERE句は$k+1以降を使う。
// idColumnに一致するカラムは主キーの書き換えを防ぐためSET句から必ず除外する。
// SET句が空になる場合はErrEmptyAssignment、WHERE句が空になる場合はErrEmptyPredicateを返す。
func Update(table, idColumn string, set, where Fields) (Statement, error) {
	assigns := make(Fields, 0, len(set))
	for _, f := range set.present() {
		if f.Column == idColumn {
			continue
		}
		assigns = append(assigns, f)
	}
	if len(assigns) == 0 {
		return Statement{}, ErrEmptyAssignment
	}
	preds := where.present()
	if len(preds) == 0 {
		return Statement{}, ErrEmptyPredicate
	}

	var args argList
	parts := make([]string, len(assigns))
	for i, f := range assigns {
		if f.Value.IsNull() {
			parts[i] = f.Column + " = NULL"
			continue
		}
		parts[i] = f.Column + " = " + args.next(f.Value.Interface())
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(parts, ", "))
	writeWhere(&b, &args, preds)

	return Statement{SQL: b.String(), Args: args.args}, nil
}

// writeWhere は述語リストからWHERE句を書き込む。predsが空なら何も書かない。
func writeWhere(b *strings.Builder, args *argList, preds Fields) {
	if len(preds) == 0 {
		return
	}
	b.WriteString(" WHERE ")
	for i, f := range preds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(f.Column)
		if f.Value.IsNull() {
			b.WriteString(" IS NULL")
			continue
		}
		op := f.Op
		if op == "" {
			op = OpEq
		}
		b.WriteString(" ")
		b.WriteString(string(op))
		b.WriteString(" ")
		b.WriteString(args.next(f.Value.Interface()))
	}
}
