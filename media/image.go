package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// DecodePhoto decodes an uploaded payload into a BGR Mat, applying EXIF
// auto-orientation so detection sees the photo the way it was taken.
// Returns an error for malformed or unreadable payloads.
func DecodePhoto(payload []byte) (gocv.Mat, error) {
	if len(payload) == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image payload")
	}

	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to decode image: %w", err)
	}

	rgb, err := gocv.ImageToMatRGB(imaging.Clone(img))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert image to Mat: %w", err)
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	rgb.Close()

	if bgr.Empty() {
		bgr.Close()
		return gocv.Mat{}, fmt.Errorf("decoded image is empty")
	}
	return bgr, nil
}

// CropRegion extracts a face region from the image as an owned Mat. The
// region is clamped to the image bounds; a region that collapses to nothing
// after clamping is an error.
func CropRegion(img gocv.Mat, r Region) (gocv.Mat, error) {
	x1, y1, x2, y2 := r.X1, r.Y1, r.X2, r.Y2
	if x1 < 0 {
		x1 = 0
	}
	if y1 < 0 {
		y1 = 0
	}
	if x2 > img.Cols() {
		x2 = img.Cols()
	}
	if y2 > img.Rows() {
		y2 = img.Rows()
	}
	if x2-x1 <= 1 || y2-y1 <= 1 {
		return gocv.Mat{}, fmt.Errorf("face region [%d,%d,%d,%d] is outside the image", r.X1, r.Y1, r.X2, r.Y2)
	}

	view := img.Region(image.Rect(x1, y1, x2, y2))
	defer view.Close()

	// clone so the crop outlives the source image and can cross goroutines
	return view.Clone(), nil
}
