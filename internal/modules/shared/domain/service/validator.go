package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize 受け付ける画像サイズの上限（10MB）
const MaxImageSize = 10 << 20

// allowedMIMETypes AIサービスが受け付ける画像形式
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// ValidateImageData 画像データを検証し、判定したMIMEタイプを返す
func ValidateImageData(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("image data is empty")
	}

	if len(data) > MaxImageSize {
		return "", errors.New("image size exceeds 10MB")
	}

	mime := mimetype.Detect(data)
	if !allowedMIMETypes[mime.String()] {
		return "", fmt.Errorf("unsupported format: %s", mime.String())
	}

	return mime.String(), nil
}

// IsAllowedMIMEType AIサービスが受け付けるMIMEタイプかどうか
func IsAllowedMIMEType(mimeType string) bool {
	return allowedMIMETypes[strings.ToLower(mimeType)]
}

// DecodeImagePayload data URIまたはbase64文字列を画像データに変換
//
// "data:image/png;base64," のようなプレフィックスは取り除く。
// プレフィックスにMIMEタイプが含まれていればそれも返す。
func DecodeImagePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", errors.New("image payload is empty")
	}

	var mimeType string
	if strings.HasPrefix(payload, "data:") {
		meta, data, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", errors.New("malformed data URI")
		}
		meta = strings.TrimPrefix(meta, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", errors.New("data URI is not base64 encoded")
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}

	return decoded, mimeType, nil
}
