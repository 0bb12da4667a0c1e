package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImageData(t *testing.T) {
	pngData := createTestPNG(t)
	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantErr  bool
	}{
		{name: "正常系: PNG", data: pngData, wantMIME: "image/png"},
		{name: "正常系: JPEG", data: jpegHeader, wantMIME: "image/jpeg"},
		{name: "異常系: 空データ", data: []byte{}, wantErr: true},
		{name: "異常系: nil", data: nil, wantErr: true},
		{name: "異常系: テキスト", data: []byte("hello, not an image"), wantErr: true},
		{name: "異常系: サイズ超過", data: append(append([]byte{}, pngData...), make([]byte, MaxImageSize)...), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := ValidateImageData(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}

func TestIsAllowedMIMEType(t *testing.T) {
	assert.True(t, IsAllowedMIMEType("image/jpeg"))
	assert.True(t, IsAllowedMIMEType("IMAGE/PNG"))
	assert.False(t, IsAllowedMIMEType("image/gif"))
	assert.False(t, IsAllowedMIMEType("text/plain"))
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte("planet-bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		payload  string
		wantData []byte
		wantMIME string
		wantErr  bool
	}{
		{name: "正常系: data URI", payload: "data:image/jpeg;base64," + encoded, wantData: raw, wantMIME: "image/jpeg"},
		{name: "正常系: base64のみ", payload: encoded, wantData: raw, wantMIME: ""},
		{name: "正常系: 前後の空白", payload: "  " + encoded + "\n", wantData: raw, wantMIME: ""},
		{name: "異常系: 空", payload: "", wantErr: true},
		{name: "異常系: カンマのないdata URI", payload: "data:image/png;base64", wantErr: true},
		{name: "異常系: base64でないdata URI", payload: "data:image/png," + encoded, wantErr: true},
		{name: "異常系: 不正なbase64", payload: "data:image/png;base64,@@@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := DecodeImagePayload(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, data)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}
