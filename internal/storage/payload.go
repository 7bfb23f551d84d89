package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPayload はデコード後のデータが空であることを示す。
var ErrEmptyPayload = errors.New("upload payload is empty")

// DecodeBase64 はbase64文字列をデコードする。
// "data:image/png;base64,..." 形式のデータURLも受け付け、その場合はMIMEタイプも返す。
func DecodeBase64(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)

	var contentType string
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.New("invalid data URL")
		}
		mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return nil, "", errors.New("data URL must be base64 encoded")
		}
		contentType = mediaType
		payload = data
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// パディングなし形式も許容する
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
		}
	}
	if len(decoded) == 0 {
		return nil, "", ErrEmptyPayload
	}
	return decoded, contentType, nil
}
