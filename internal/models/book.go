package models

import (
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Состояния книги
const (
	ConditionLikeNew = "Like New"
	ConditionGood    = "Good"
	ConditionFair    = "Fair"
	ConditionPoor    = "Poor"
)

// Намерения владельца книги
const (
	IntentGiveaway = "Giveaway"
	IntentExchange = "Exchange"
)

// Статусы публикации объявления
const (
	BookActive = "active"
	BookDraft  = "draft"
)

// ValidConditions содержит допустимые значения состояния книги
var ValidConditions = map[string]bool{
	ConditionLikeNew: true,
	ConditionGood:    true,
	ConditionFair:    true,
	ConditionPoor:    true,
}

// ValidIntents содержит допустимые намерения
var ValidIntents = map[string]bool{
	IntentGiveaway: true,
	IntentExchange: true,
}

// Book представляет объявление о книге
type Book struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description,omitempty"`
	Condition   string      `json:"condition"`
	Intent      string      `json:"intent"`
	Tags        []string    `json:"tags,omitempty"`
	Status      string      `json:"status"`
	Images      []BookImage `json:"images"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Дополнительные поля для API
	Availability string `json:"availability,omitempty"` // Производный статус, не хранится в БД
	Owner        *User  `json:"owner,omitempty"`
}

// BookImage представляет изображение книги, первое по позиции — обложка
type BookImage struct {
	ID         uuid.UUID     `json:"id"`
	BookID     uuid.UUID     `json:"book_id"`
	URL        string        `json:"url"`
	PreviewURL string        `json:"preview_url,omitempty"`
	PublicID   string        `json:"public_id"`
	FileName   string        `json:"file_name,omitempty"`
	IsCover    bool          `json:"is_cover"`
	Position   int           `json:"position"`
	Metadata   ImageMetadata `json:"metadata,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ImageMetadata содержит ключевые метаданные изображения из Cloudinary
type ImageMetadata struct {
	AssetID   string    `json:"asset_id"`
	PublicID  string    `json:"public_id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	Bytes     int       `json:"bytes"`
}

// CloudinaryResponse представляет ответ от Cloudinary API
type CloudinaryResponse struct {
	AssetID          string    `json:"asset_id"`
	PublicID         string    `json:"public_id"`
	Version          int       `json:"version"`
	Signature        string    `json:"signature"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Format           string    `json:"format"`
	ResourceType     string    `json:"resource_type"`
	CreatedAt        time.Time `json:"created_at"`
	Bytes            int       `json:"bytes"`
	URL              string    `json:"url"`
	SecureURL        string    `json:"secure_url"`
	OriginalFilename string    `json:"original_filename"`
	Eager            []Eager   `json:"eager"`
}

// Eager содержит информацию о трансформациях изображения
type Eager struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
}

// ExtractMetadata извлекает основные метаданные из ответа Cloudinary
func ExtractMetadata(cr CloudinaryResponse) ImageMetadata {
	return ImageMetadata{
		AssetID:   cr.AssetID,
		PublicID:  cr.PublicID,
		Width:     cr.Width,
		Height:    cr.Height,
		CreatedAt: cr.CreatedAt,
		Bytes:     cr.Bytes,
	}
}

// ExtractPreviewURL извлекает URL превью из ответа Cloudinary
func ExtractPreviewURL(cr CloudinaryResponse) string {
	for _, eager := range cr.Eager {
		if eager.Status == "processing" || eager.Status == "completed" {
			return eager.SecureURL
		}
	}
	return ""
}

// ParseCloudinaryResponse конвертирует JSON-ответ от Cloudinary в структуру
func ParseCloudinaryResponse(jsonData []byte) (CloudinaryResponse, error) {
	var response CloudinaryResponse
	err := json.Unmarshal(jsonData, &response)
	return response, err
}

// MarshalMetadata сериализует метаданные изображения для хранения в JSONB
func MarshalMetadata(meta ImageMetadata) ([]byte, error) {
	return json.Marshal(meta)
}

// UnmarshalMetadata разбирает метаданные изображения из JSONB
func UnmarshalMetadata(data []byte, meta *ImageMetadata) error {
	return json.Unmarshal(data, meta)
}
