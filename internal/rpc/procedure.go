// Package rpc は名前付きプロシージャによるリモート呼び出し層を提供する。
//
// クエリはGET、ミューテーションはPOSTで呼び出し、入力はJSONで受け取る。
// 各プロシージャは権限レベル（Tier）を持ち、入力の検証前に判定される。
package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/hitoshi/kickoff/internal/model"
)

// Tier はプロシージャの権限レベル。
type Tier int

const (
	// TierPublic は誰でも呼び出せる。
	TierPublic Tier = iota
	// TierProtected はログイン済みユーザーのみ呼び出せる。
	TierProtected
	// TierAdmin は管理者ロールのユーザーのみ呼び出せる。
	TierAdmin
)

// String はログ出力用の名前を返す。
func (t Tier) String() string {
	switch t {
	case TierProtected:
		return "protected"
	case TierAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Kind はプロシージャの種類（クエリ／ミューテーション）。
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

// method はKindに対応するHTTPメソッドを返す。
func (k Kind) method() string {
	if k == KindMutation {
		return http.MethodPost
	}
	return http.MethodGet
}

// Call はプロシージャ本体に渡される呼び出しコンテキスト。
// Cookie操作が必要なプロシージャのためにResponseWriterを保持する。
type Call struct {
	User           *model.User
	Request        *http.Request
	ResponseWriter http.ResponseWriter
}

// Func はプロシージャ本体の関数型。
type Func[In, Out any] func(ctx context.Context, call *Call, in In) (Out, error)

// Procedure はルーターに登録できるプロシージャ。
type Procedure interface {
	Name() string
	Kind() Kind
	Tier() Tier
	RateLimited() bool
	invoke(ctx context.Context, call *Call, raw json.RawMessage) (any, error)
}

// Option はプロシージャの追加設定。
type Option func(*descriptor)

// RateLimited は書き込み系のレート制限を適用する。
func RateLimited() Option {
	return func(d *descriptor) { d.rateLimited = true }
}

type descriptor struct {
	name        string
	kind        Kind
	tier        Tier
	rateLimited bool
}

func (d *descriptor) Name() string      { return d.name }
func (d *descriptor) Kind() Kind        { return d.kind }
func (d *descriptor) Tier() Tier        { return d.tier }
func (d *descriptor) RateLimited() bool { return d.rateLimited }

type procedure[In, Out any] struct {
	descriptor
	fn Func[In, Out]
}

// Query は読み取り用のプロシージャを生成する。
func Query[In, Out any](name string, tier Tier, fn Func[In, Out], opts ...Option) Procedure {
	return newProcedure(name, KindQuery, tier, fn, opts)
}

// Mutation は更新用のプロシージャを生成する。
func Mutation[In, Out any](name string, tier Tier, fn Func[In, Out], opts ...Option) Procedure {
	return newProcedure(name, KindMutation, tier, fn, opts)
}

func newProcedure[In, Out any](name string, kind Kind, tier Tier, fn Func[In, Out], opts []Option) Procedure {
	p := &procedure[In, Out]{
		descriptor: descriptor{name: name, kind: kind, tier: tier},
		fn:         fn,
	}
	for _, opt := range opts {
		opt(&p.descriptor)
	}
	return p
}

// invoke は入力をデコード・検証してから本体を呼び出す。
func (p *procedure[In, Out]) invoke(ctx context.Context, call *Call, raw json.RawMessage) (any, error) {
	var in In
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, model.NewBadRequestError("入力の形式が正しくありません。")
		}
	}

	if isStruct(in) {
		if err := validateStruct(in); err != nil {
			return nil, err
		}
	}

	return p.fn(ctx, call, in)
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(v).IsNil() {
			return false
		}
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// Empty は入力を取らないプロシージャの入力型。
type Empty struct{}

// Success は成否のみを返すミューテーションの出力。
type Success struct {
	Success bool `json:"success"`
}

// OK は成功を表すSuccessを返す。
func OK() Success {
	return Success{Success: true}
}
