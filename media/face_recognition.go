package media

import (
	"fmt"
	"image"
	"log"
	"math"
	"os"

	"gocv.io/x/gocv"
)

// FaceEmbeddingModel extracts fixed-dimension face embeddings for
// recognition (ArcFace, FaceNet). Embeddings are L2-normalized, so the dot
// product of two embeddings is their cosine similarity.
//
// A gocv.Net is not safe for concurrent use; each embedding worker owns its
// own model instance.
type FaceEmbeddingModel struct {
	Net       gocv.Net
	Enabled   bool
	ModelName string

	InputSizeW int
	InputSizeH int
}

// NewFaceEmbeddingModel loads a face recognition model
func NewFaceEmbeddingModel(modelPath string, modelName string) *FaceEmbeddingModel {
	if modelPath == "" {
		log.Println("recognition: model path is empty, disabling face embedding model")
		return &FaceEmbeddingModel{Enabled: false}
	}

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		log.Printf("recognition: ERROR - model file does not exist: %s", modelPath)
		return &FaceEmbeddingModel{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("recognition: ERROR - ReadNet returned an empty network for %s. Check file path and integrity.", modelName)
		return &FaceEmbeddingModel{Enabled: false}
	}
	log.Printf("recognition: successfully loaded %s model", modelName)

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Printf("recognition: Set backend/target to CUDA for %s", modelName)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Printf("recognition: Set backend/target to CPU (Default) for %s", modelName)
	}

	inputSizeW, inputSizeH := 112, 112
	if modelName == "facenet" {
		inputSizeW, inputSizeH = 160, 160
	}

	return &FaceEmbeddingModel{
		Net:        net,
		Enabled:    true,
		ModelName:  modelName,
		InputSizeW: inputSizeW,
		InputSizeH: inputSizeH,
	}
}

func (f *FaceEmbeddingModel) Close() {
	if f != nil && f.Enabled {
		f.Net.Close()
		log.Printf("recognition: closed %s network", f.ModelName)
		f.Enabled = false
	}
}

// ExtractEmbedding converts one face crop into an L2-normalized embedding.
// A low-quality crop still yields a valid vector; it will simply match
// nothing above threshold downstream.
func (f *FaceEmbeddingModel) ExtractEmbedding(faceRegion gocv.Mat) ([]float32, error) {
	if f == nil || !f.Enabled {
		return nil, fmt.Errorf("embedding model is not loaded")
	}
	if faceRegion.Empty() {
		return nil, fmt.Errorf("face region is empty")
	}

	processed, err := f.preprocessFace(faceRegion)
	if err != nil {
		return nil, err
	}
	defer processed.Close()

	// ArcFace/FaceNet expect input scaled to [0,1]
	blob := gocv.BlobFromImage(processed, 1.0/255.0, image.Pt(f.InputSizeW, f.InputSizeH), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	f.Net.SetInput(blob, "")
	output := f.Net.Forward("")
	defer output.Close()

	embedding := flattenOutput(output)
	if len(embedding) == 0 {
		return nil, fmt.Errorf("model produced an empty embedding")
	}
	return normalizeEmbedding(embedding), nil
}

// preprocessFace converts the crop to RGB float32 at the model input size
func (f *FaceEmbeddingModel) preprocessFace(faceRegion gocv.Mat) (gocv.Mat, error) {
	var rgb gocv.Mat
	if faceRegion.Channels() == 3 {
		rgb = gocv.NewMat()
		gocv.CvtColor(faceRegion, &rgb, gocv.ColorBGRToRGB)
	} else {
		rgb = faceRegion.Clone()
	}
	defer rgb.Close()

	resized := gocv.NewMat()
	gocv.Resize(rgb, &resized, image.Pt(f.InputSizeW, f.InputSizeH), 0, 0, gocv.InterpolationLinear)

	converted := gocv.NewMat()
	resized.ConvertTo(&converted, gocv.MatTypeCV32F)
	resized.Close()

	if converted.Empty() {
		converted.Close()
		return gocv.Mat{}, fmt.Errorf("face preprocessing produced an empty matrix")
	}
	return converted, nil
}

// flattenOutput extracts the embedding vector from the model output
func flattenOutput(output gocv.Mat) []float32 {
	if len(output.Size()) == 0 {
		return nil
	}

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	embedding := make([]float32, flattened.Cols())
	for i := 0; i < flattened.Cols(); i++ {
		embedding[i] = flattened.GetFloatAt(0, i)
	}
	return embedding
}

// normalizeEmbedding normalizes the embedding vector to unit length
func normalizeEmbedding(embedding []float32) []float32 {
	var norm float32
	for _, val := range embedding {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		return embedding
	}

	normalized := make([]float32, len(embedding))
	for i, val := range embedding {
		normalized[i] = val / norm
	}
	return normalized
}
