package media

import (
	"image"
	"log"
	"sort"

	"gocv.io/x/gocv"
)

// DNNFaceDetector locates face regions using an SSD res10 network
type DNNFaceDetector struct {
	Net     gocv.Net
	Enabled bool

	// configuration parameters used during detection
	InputSizeW    int
	InputSizeH    int
	ScaleFactor   float64
	MeanVal       gocv.Scalar
	ConfThreshold float32
}

// NewDNNFaceDetector loads the DNN model
func NewDNNFaceDetector(configPath, modelPath string) *DNNFaceDetector {
	if configPath == "" || modelPath == "" {
		log.Println("detection(dnn): config or model path is empty, disabling DNN detector")
		return &DNNFaceDetector{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		log.Printf("detection(dnn): ERROR loading network model: config=%s, model=%s", configPath, modelPath)
		return &DNNFaceDetector{Enabled: false}
	}
	log.Printf("detection(dnn): successfully loaded face detection model")

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)

	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("detection(dnn): Set backend/target to CUDA")
	} else {
		if cudaBackendErr != nil {
			log.Printf("detection(dnn): CUDA Backend not available or failed: %v. Using default backend.", cudaBackendErr)
		}
		if cudaTargetErr != nil {
			log.Printf("detection(dnn): CUDA Target not available or failed: %v. Using default target.", cudaTargetErr)
		}

		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("detection(dnn): Set backend/target to CPU (Default)")
	}

	return &DNNFaceDetector{
		Net:           net,
		Enabled:       true,
		InputSizeW:    300,
		InputSizeH:    300,
		ScaleFactor:   1.0,
		MeanVal:       gocv.NewScalar(104.0, 177.0, 123.0, 0),
		ConfThreshold: 0.5,
	}
}

func (d *DNNFaceDetector) Close() {
	if d != nil && d.Enabled {
		d.Net.Close()
		log.Println("detection(dnn): closed network")
		d.Enabled = false
	}
}

// DetectFaces runs the network over a decoded BGR image and returns every
// face region above the confidence threshold. The result is ordered
// left-to-right by x1, ties broken top-to-bottom by y1; the slice position
// is the face index for the rest of the pipeline and is stable within one
// call. Zero faces is a valid, non-error result.
func (d *DNNFaceDetector) DetectFaces(img gocv.Mat) []Region {
	if d == nil || !d.Enabled || img.Empty() {
		return nil
	}

	imgW := img.Cols()
	imgH := img.Rows()

	blob := gocv.BlobFromImage(img, d.ScaleFactor, image.Pt(d.InputSizeW, d.InputSizeH), d.MeanVal, false, false)
	defer blob.Close()

	d.Net.SetInput(blob, "")
	prob := d.Net.Forward("")
	defer prob.Close()

	// output shape is [1, 1, N, 7]: (batch, class, confidence, x1, y1, x2, y2)
	detections := gocv.GetBlobChannel(prob, 0, 0)
	defer detections.Close()

	var regions []Region
	for r := 0; r < detections.Rows(); r++ {
		confidence := detections.GetFloatAt(r, 2)
		if confidence < d.ConfThreshold {
			continue
		}

		region := Region{
			X1:         int(detections.GetFloatAt(r, 3) * float32(imgW)),
			Y1:         int(detections.GetFloatAt(r, 4) * float32(imgH)),
			X2:         int(detections.GetFloatAt(r, 5) * float32(imgW)),
			Y2:         int(detections.GetFloatAt(r, 6) * float32(imgH)),
			Confidence: confidence,
		}
		if region.Area() == 0 {
			continue
		}
		regions = append(regions, region)
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].X1 != regions[j].X1 {
			return regions[i].X1 < regions[j].X1
		}
		return regions[i].Y1 < regions[j].Y1
	})
	return regions
}
