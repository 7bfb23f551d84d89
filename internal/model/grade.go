package model

import (
	"fmt"
	"strings"
)

// Grade は学年カテゴリ（U7〜U12）を表すタグ。
type Grade string

const (
	GradeU7  Grade = "U7"
	GradeU8  Grade = "U8"
	GradeU9  Grade = "U9"
	GradeU10 Grade = "U10"
	GradeU11 Grade = "U11"
	GradeU12 Grade = "U12"
)

// GradeAll は「学年で絞り込まない」ことを示すフィルタ用の値。保存はされない。
const GradeAll = "all"

// AllGrades は定義済みの学年タグを昇順で返す。
// どのタグも他のタグの部分文字列であってはならない（部分一致検索の前提）。
var AllGrades = []Grade{GradeU7, GradeU8, GradeU9, GradeU10, GradeU11, GradeU12}

const (
	gradeSeparator  = ","
	maxGradesPerSet = 5
)

func init() {
	for _, a := range AllGrades {
		for _, b := range AllGrades {
			if a != b && strings.Contains(string(b), string(a)) {
				panic(fmt.Sprintf("grade tag %q is a substring of %q", a, b))
			}
		}
	}
}

// ParseGrade は文字列を学年タグとして検証する。
func ParseGrade(s string) (Grade, error) {
	for _, g := range AllGrades {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown grade: %q", s)
}

// IsGradeFilter はフィルタ値として有効か（空、all、学年タグのいずれか）を返す。
func IsGradeFilter(s string) bool {
	if s == "" || s == GradeAll {
		return true
	}
	_, err := ParseGrade(s)
	return err == nil
}

// GradeSet は1〜5個の学年タグの順序付き集合。
// 保存形式はカンマ区切りで、入力順を保持し末尾に区切り文字は付けない。
// タグはカンマを含まないためエスケープは不要。
type GradeSet []Grade

// ParseGradeSet は入力リストを検証してGradeSetを生成する。
// 空、6個以上、未定義のタグ、重複はエラーとなる。
func ParseGradeSet(values []string) (GradeSet, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one grade is required")
	}
	if len(values) > maxGradesPerSet {
		return nil, fmt.Errorf("at most %d grades are allowed, got %d", maxGradesPerSet, len(values))
	}

	set := make(GradeSet, 0, len(values))
	seen := make(map[Grade]bool, len(values))
	for _, v := range values {
		g, err := ParseGrade(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		if seen[g] {
			return nil, fmt.Errorf("duplicate grade: %q", g)
		}
		seen[g] = true
		set = append(set, g)
	}
	return set, nil
}

// ParseGradeString は保存済みのカンマ区切り文字列をGradeSetに復元する。
// 未定義のタグは読み飛ばす。
func ParseGradeString(s string) GradeSet {
	if s == "" {
		return nil
	}
	var set GradeSet
	for _, part := range strings.Split(s, gradeSeparator) {
		if g, err := ParseGrade(strings.TrimSpace(part)); err == nil {
			set = append(set, g)
		}
	}
	return set
}

// String はカンマ区切りの保存形式を返す。
func (s GradeSet) String() string {
	parts := make([]string, len(s))
	for i, g := range s {
		parts[i] = string(g)
	}
	return strings.Join(parts, gradeSeparator)
}

// Contains は区切り文字を考慮してタグを含むかどうかを返す。
func (s GradeSet) Contains(g Grade) bool {
	for _, v := range s {
		if v == g {
			return true
		}
	}
	return false
}
