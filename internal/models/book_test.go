package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseCloudinaryResponse(t *testing.T) {
	raw := []byte(`{
		"asset_id": "a1b2c3",
		"public_id": "bookswap/books/abc123",
		"version": 1712345678,
		"width": 1200,
		"height": 1600,
		"format": "jpg",
		"resource_type": "image",
		"bytes": 245760,
		"secure_url": "https://res.cloudinary.com/demo/image/upload/v1712345678/bookswap/books/abc123.jpg",
		"original_filename": "cover",
		"eager": [
			{"status": "completed", "secure_url": "https://res.cloudinary.com/demo/image/upload/c_fill,w_300/bookswap/books/abc123.jpg"}
		]
	}`)

	resp, err := ParseCloudinaryResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, "bookswap/books/abc123", resp.PublicID)
	assert.Equal(t, 1200, resp.Width)
	assert.Len(t, resp.Eager, 1)
}

func Test_ExtractPreviewURL(t *testing.T) {
	tests := []struct {
		name     string
		eager    []Eager
		expected string
	}{
		{
			name:     "нет трансформаций",
			eager:    nil,
			expected: "",
		},
		{
			name: "готовая трансформация",
			eager: []Eager{
				{Status: "completed", SecureURL: "https://example.com/preview.jpg"},
			},
			expected: "https://example.com/preview.jpg",
		},
		{
			name: "обрабатываемая трансформация тоже подходит",
			eager: []Eager{
				{Status: "processing", SecureURL: "https://example.com/processing.jpg"},
			},
			expected: "https://example.com/processing.jpg",
		},
		{
			name: "неизвестный статус пропускается",
			eager: []Eager{
				{Status: "failed", SecureURL: "https://example.com/failed.jpg"},
				{Status: "completed", SecureURL: "https://example.com/ok.jpg"},
			},
			expected: "https://example.com/ok.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := ExtractPreviewURL(CloudinaryResponse{Eager: tt.eager})
			assert.Equal(t, tt.expected, url)
		})
	}
}

func Test_MetadataRoundTrip(t *testing.T) {
	resp, err := ParseCloudinaryResponse([]byte(`{"asset_id": "x", "public_id": "p", "width": 10, "height": 20, "bytes": 30}`))
	require.NoError(t, err)

	meta := ExtractMetadata(resp)
	data, err := MarshalMetadata(meta)
	require.NoError(t, err)

	var restored ImageMetadata
	require.NoError(t, UnmarshalMetadata(data, &restored))
	assert.Equal(t, meta, restored)
}
