package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/bookswap-api/internal/config"
)

func Test_GenerateSignature_SortsParams(t *testing.T) {
	s := &CloudinaryService{
		cfg: &config.Config{
			CloudinaryConfig: config.CloudinaryConfig{APISecret: "secret"},
		},
	}

	signature := s.GenerateSignature(map[string]string{
		"timestamp": "1700000000",
		"folder":    "bookswap/books",
	})

	// Параметры подписываются в алфавитном порядке ключей
	h := sha1.New()
	h.Write([]byte("folder=bookswap/books&timestamp=1700000000" + "secret"))
	expected := hex.EncodeToString(h.Sum(nil))

	assert.Equal(t, expected, signature)
}

func Test_GenerateSignature_Deterministic(t *testing.T) {
	s := &CloudinaryService{
		cfg: &config.Config{
			CloudinaryConfig: config.CloudinaryConfig{APISecret: "secret"},
		},
	}

	params := map[string]string{"timestamp": "1700000000"}
	assert.Equal(t, s.GenerateSignature(params), s.GenerateSignature(params))
}
