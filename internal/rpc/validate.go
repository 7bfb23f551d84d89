package rpc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/kickoff/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーのフィールド名はJSON名で返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct は構造体タグに従って入力を検証し、
// 失敗時はフィールド別の詳細を持つBAD_REQUESTを返す。
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewBadRequestError("入力の形式が正しくありません。")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return model.NewValidationError(fields)
}

// fieldPath はルート構造体名を除いたフィールドパスを返す。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です。"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s文字以上で入力してください。", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s個以上指定してください。", fe.Param())
		}
		return fmt.Sprintf("%s以上の値を指定してください。", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s文字以内で入力してください。", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s個以内で指定してください。", fe.Param())
		}
		return fmt.Sprintf("%s以下の値を指定してください。", fe.Param())
	case "gte":
		return fmt.Sprintf("%s以上の値を指定してください。", fe.Param())
	case "gt":
		return fmt.Sprintf("%sより大きい値を指定してください。", fe.Param())
	case "oneof":
		return fmt.Sprintf("次のいずれかを指定してください: %s", fe.Param())
	case "email":
		return "メールアドレスの形式が正しくありません。"
	case "unique":
		return "重複した値は指定できません。"
	default:
		return "入力値が正しくありません。"
	}
}
