// Package yolo provides a YOLOv8 object detector backed by OpenCV DNN.
package yolo

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/teslashibe/go-hazardcam/pkg/detection"
	"gocv.io/x/gocv"
)

// Config holds YOLO detector configuration
type Config struct {
	Name             string   // Source id stamped on detections
	ModelPath        string   // Path to ONNX model
	Classes          []string // Class names indexed by class id (default COCO)
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
	Logger           *slog.Logger
}

// DefaultConfig returns production defaults for YOLOv8n
func DefaultConfig() Config {
	return Config{
		Name:             "coco",
		ModelPath:        "models/yolov8n.onnx",
		Classes:          detection.COCOClasses,
		ConfidenceThresh: 0.4,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		Logger:           slog.Default(),
	}
}

// Detector uses YOLOv8 for general object detection
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
	logger    *slog.Logger
}

// New creates a new YOLO object detector
func New(cfg Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", detection.ErrModelNotFound, cfg.ModelPath)
	}
	if len(cfg.Classes) == 0 {
		cfg.Classes = detection.COCOClasses
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		logger:    cfg.Logger.With("component", "yolo", "source", cfg.Name),
	}, nil
}

// Name implements detection.Detector.
func (d *Detector) Name() string {
	return d.config.Name
}

// Detect finds objects in the JPEG image. Boxes are in image pixels.
func (d *Detector) Detect(jpeg []byte) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dets := d.parse(output, float32(img.Cols()), float32(img.Rows()))
	d.logger.Debug("inference done", "objects", len(dets))
	return dets, nil
}

// parse decodes the YOLOv8 output tensor.
// Output shape: [1, 4+classes, anchors], class scores start at row 4.
func (d *Detector) parse(output gocv.Mat, imgW, imgH float32) []detection.Detection {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	anchors := output.Cols()
	rows := output.Rows()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	sx := imgW / float32(d.config.InputWidth)
	sy := imgH / float32(d.config.InputHeight)

	for i := 0; i < anchors; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < rows; c++ {
			if score := data[c*anchors+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		boxes = append(boxes, image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return []detection.Detection{}
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	dets := make([]detection.Detection, 0, len(indices))
	for _, idx := range indices {
		r := boxes[idx]
		dets = append(dets, detection.Detection{
			Box: detection.Box{
				X1: float64(r.Min.X), Y1: float64(r.Min.Y),
				X2: float64(r.Max.X), Y2: float64(r.Max.Y),
			},
			Confidence: float64(confidences[idx]),
			Label:      detection.ClassName(d.config.Classes, classIDs[idx]),
			SourceID:   d.config.Name,
		})
	}
	return dets
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Verify Detector implements detection.Detector at compile time.
var _ detection.Detector = (*Detector)(nil)
