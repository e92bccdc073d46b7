package querybuilder

// valueKind はValueが保持する値の種別。
type valueKind int

const (
	kindAbsent valueKind = iota
	kindNull
	kindConcrete
)

// Value はカラムに対応する値を表すタグ付きバリアント。
// Concrete（具体値）、Null（NULLとの一致・NULLの挿入）、Absent（カラム自体を無視）の3種類を持つ。
// ゼロ値はAbsentとして扱われる。
type Value struct {
	kind valueKind
	v    any
}

// Concrete は具体値を保持するValueを返す。
// nilを渡した場合もConcreteとして扱い、ドライバにnilを渡す。NULLを意図する場合はNullを使うこと。
func Concrete(v any) Value {
	return Value{kind: kindConcrete, v: v}
}

// Null はNULLを表すValueを返す。プレースホルダを消費しない。
func Null() Value {
	return Value{kind: kindNull}
}

// Absent はステートメント構築時に取り除かれるValueを返す。
func Absent() Value {
	return Value{}
}

// Optional はポインタがnilならAbsent、そうでなければ参照先の値をConcreteとして返す。
// 任意パラメータの受け渡しに使う。NULLを挿入したい場合はNullを明示すること。
func Optional[T any](p *T) Value {
	if p == nil {
		return Absent()
	}
	return Concrete(*p)
}

// IsAbsent はValueがAbsentかどうかを返す。
func (v Value) IsAbsent() bool { return v.kind == kindAbsent }

// IsNull はValueがNullかどうかを返す。
func (v Value) IsNull() bool { return v.kind == kindNull }

// Interface はConcreteの保持値を返す。Concrete以外ではnilを返す。
func (v Value) Interface() any {
	if v.kind != kindConcrete {
		return nil
	}
	return v.v
}
