// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は利用者が入力した本文（掲示板の投稿・コメント、お知らせ本文）を
// 保存前にサニタイズする。bluemondayの許可リストポリシーで安全なタグと属性のみを残す。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は本文サニタイズのインターフェース。
type ContentSanitizer interface {
	// Sanitize は許可タグ（p, br, a, ul, ol, li, blockquote, strong, em, img）のみを残す。
	// script, iframe, styleおよびon*属性は除去される。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string

	// PlainText は全てのタグを除去したテキストを返す。
	// RSS/Atomの概要などHTMLを含めたくない出力に使う。
	PlainText(rawHTML string) string
}

type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
//   - aタグ: href属性のみ。サイト内の相対リンクは許可し、外部リンクにはtarget="_blank"とrel="noopener noreferrer"を付与
//   - imgタグ: src（httpsのみ）とalt
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemes("https", "mailto")

	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("src").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return strings.TrimSpace(s.rich.Sanitize(rawHTML))
}

func (s *contentSanitizer) PlainText(rawHTML string) string {
	// StrictPolicyは実体参照を残すため、テキストとして戻す
	text := html.UnescapeString(s.strict.Sanitize(rawHTML))
	return strings.Join(strings.Fields(text), " ")
}
