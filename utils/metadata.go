package utils

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// PhotoMetadata carries the EXIF fields recorded alongside a submission
// for the audit trail
type PhotoMetadata struct {
	TakenAt     *int64  `json:"taken_at,omitempty"` // Unix timestamp
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
}

// helper to safely get a string tag
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil || val == "" {
		return nil
	}
	return &val
}

// ExtractPhotoMetadata reads EXIF data from a raw photo payload.
// Best-effort: payloads without EXIF yield an empty struct, never an error.
func ExtractPhotoMetadata(payload []byte) PhotoMetadata {
	var meta PhotoMetadata

	exifData, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return meta
	}

	if takenTime, err := exifData.DateTime(); err == nil {
		unix := takenTime.Unix()
		meta.TakenAt = &unix
	}
	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)
	return meta
}
