package models

import (
	"math"
)

// FaceSignature represents the single live face embedding for a student.
// It corresponds to the 'face_signatures' table. The unique index on
// student_id enforces at most one live signature per identity; enrollment
// replaces the row in place.
type FaceSignature struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID      string `gorm:"uniqueIndex;not null;size:36" json:"student_id"`
	EmbeddingData  []byte `gorm:"not null;column:embedding_data" json:"embedding_data"`                     // face embedding vector as BLOB, little-endian float32
	EmbeddingModel string `gorm:"not null;column:embedding_model;default:'arcface'" json:"embedding_model"` // Name of the model used for embedding
	Dimension      int    `gorm:"not null" json:"dimension"`
	CreatedAt      int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt      int64  `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (FaceSignature) TableName() string {
	return "face_signatures"
}

// GetEmbedding converts the BLOB data to []float32
func (fs *FaceSignature) GetEmbedding() []float32 {
	if len(fs.EmbeddingData) == 0 {
		return nil
	}

	// Convert []byte to []float32
	embedding := make([]float32, len(fs.EmbeddingData)/4) // 4 bytes per float32
	for i := 0; i < len(embedding); i++ {
		offset := i * 4
		bits := uint32(fs.EmbeddingData[offset]) |
			uint32(fs.EmbeddingData[offset+1])<<8 |
			uint32(fs.EmbeddingData[offset+2])<<16 |
			uint32(fs.EmbeddingData[offset+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

// SetEmbedding converts []float32 to BLOB data
func (fs *FaceSignature) SetEmbedding(embedding []float32) {
	fs.Dimension = len(embedding)
	if len(embedding) == 0 {
		fs.EmbeddingData = nil
		return
	}

	// Convert []float32 to []byte
	fs.EmbeddingData = make([]byte, len(embedding)*4) // 4 bytes per float32
	for i, val := range embedding {
		offset := i * 4
		bits := math.Float32bits(val)
		fs.EmbeddingData[offset] = byte(bits)
		fs.EmbeddingData[offset+1] = byte(bits >> 8)
		fs.EmbeddingData[offset+2] = byte(bits >> 16)
		fs.EmbeddingData[offset+3] = byte(bits >> 24)
	}
}
