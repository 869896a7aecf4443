package workers

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/media"
	"github.com/camden-git/attendsysbackend/recognition"
)

type embedJob struct {
	crop    gocv.Mat
	index   int
	results chan<- embedResult
}

type embedResult struct {
	index     int
	embedding []float32
	err       error
}

// EmbeddingPool implements recognition.FaceExtractor on top of the gocv
// adapters: one shared detector (detection is one call per submission) and
// a bounded pool of embedding workers, each owning its own network since
// gocv nets are not safe for concurrent use. Faces of one photo embed in
// parallel; ExtractFaces returns only after every submitted face has a
// result, the synchronization barrier the resolver depends on.
type EmbeddingPool struct {
	Cfg        config.Config
	JobQueue   chan embedJob
	Wg         sync.WaitGroup
	StopChan   chan struct{}
	detector   *media.DNNFaceDetector
	detectorMu sync.Mutex
}

// Ensure EmbeddingPool implements recognition.FaceExtractor
var _ recognition.FaceExtractor = (*EmbeddingPool)(nil)

// NewEmbeddingPool loads the detector and starts the embedding workers
func NewEmbeddingPool(cfg config.Config) *EmbeddingPool {
	numWorkers := cfg.NumEmbeddingWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	queueSize := cfg.EmbeddingQueueSize
	if queueSize <= 0 {
		queueSize = 16
	}

	pool := &EmbeddingPool{
		Cfg:      cfg,
		JobQueue: make(chan embedJob, queueSize),
		StopChan: make(chan struct{}),
		detector: media.NewDNNFaceDetector(cfg.FaceDNNNetConfigPath, cfg.FaceDNNNetModelPath),
	}
	if !pool.detector.Enabled {
		log.Println("WARNING: face detector failed to load; submissions will detect zero faces")
	}

	pool.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go pool.worker(i)
	}
	log.Printf("Started %d embedding worker(s) with queue size %d", numWorkers, queueSize)
	return pool
}

// worker loads its own embedding model and processes face crops from the queue
func (p *EmbeddingPool) worker(id int) {
	defer p.Wg.Done()

	log.Printf("Worker %d: Loading face embedding model...", id)
	model := media.NewFaceEmbeddingModel(p.Cfg.FaceEmbeddingModelPath, p.Cfg.FaceEmbeddingModelName)
	defer func() {
		model.Close()
		log.Printf("Worker %d: embedding model closed", id)
	}()
	if !model.Enabled {
		log.Printf("Worker %d: embedding model failed to load or is disabled", id)
	}

	for {
		select {
		case job, ok := <-p.JobQueue:
			if !ok {
				log.Printf("Embedding worker %d stopping: job queue closed", id)
				return
			}
			embedding, err := model.ExtractEmbedding(job.crop)
			job.crop.Close()
			job.results <- embedResult{index: job.index, embedding: embedding, err: err}
		case <-p.StopChan:
			log.Printf("Embedding worker %d stopping: stop signal received", id)
			return
		}
	}
}

// ExtractFaces decodes the payload, detects face regions, and embeds each
// region on the worker pool. A crop or embedding failure degrades that
// face (nil embedding); only an undecodable payload fails the call.
func (p *EmbeddingPool) ExtractFaces(ctx context.Context, payload []byte) ([]recognition.DetectedFace, error) {
	img, err := media.DecodePhoto(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", recognition.ErrInvalidImage, err)
	}
	defer img.Close()

	p.detectorMu.Lock()
	regions := p.detector.DetectFaces(img)
	p.detectorMu.Unlock()

	if len(regions) == 0 {
		return nil, nil
	}

	faces := make([]recognition.DetectedFace, len(regions))
	results := make(chan embedResult, len(regions))
	submitted := 0

	for i, region := range regions {
		faces[i] = recognition.DetectedFace{
			Index: i,
			Box:   recognition.BoundingBox{X1: region.X1, Y1: region.Y1, X2: region.X2, Y2: region.Y2},
		}

		crop, cropErr := media.CropRegion(img, region)
		if cropErr != nil {
			log.Printf("Worker pool: skipping face %d: %v", i, cropErr)
			continue
		}

		select {
		case p.JobQueue <- embedJob{crop: crop, index: i, results: results}:
			submitted++
		case <-ctx.Done():
			crop.Close()
			return nil, ctx.Err()
		}
	}

	// barrier: every submitted face must report before matching proceeds
	for n := 0; n < submitted; n++ {
		select {
		case res := <-results:
			if res.err != nil {
				log.Printf("Worker pool: face %d degraded to unrecognized: %v", res.index, res.err)
				continue
			}
			faces[res.index].Embedding = res.embedding
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return faces, nil
}

func (p *EmbeddingPool) Stop() {
	log.Println("Stopping embedding workers...")
	close(p.StopChan)
	p.Wg.Wait()
	p.detector.Close()
	log.Println("All embedding workers stopped")
}
