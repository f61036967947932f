package ml

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"heart-predictor/internal/features"

	ort "github.com/yalue/onnxruntime_go"
)

const defaultORTLibrary = "libonnxruntime.so"

// ONNXParams points at a classifier exported to ONNX (for example with
// skl2onnx). The model takes one float32 tensor of shape [batch, features]
// and its first output is the predicted label.
type ONNXParams struct {
	ModelFile   string `json:"model_file"`
	LibraryPath string `json:"library_path,omitempty"`
	InputName   string `json:"input_name,omitempty"`
	OutputName  string `json:"output_name,omitempty"`
}

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

type onnxClassifier struct {
	session     *ort.DynamicAdvancedSession
	numFeatures int
}

func newONNXClassifier(p *ONNXParams, dir string, numFeatures int) (*onnxClassifier, error) {
	if p.ModelFile == "" {
		return nil, errors.New("onnx: model_file is required")
	}
	modelPath := resolvePath(dir, p.ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("onnx: model file: %w", err)
	}

	libPath := p.LibraryPath
	if libPath == "" {
		libPath = defaultORTLibrary
	}
	libPath = resolvePath(dir, libPath)
	if _, err := os.Stat(libPath); err != nil {
		return nil, fmt.Errorf("onnx: runtime library: %w", err)
	}

	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has %d inputs and %d outputs", len(inputs), len(outputs))
	}

	inputName := p.InputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	var inputInfo *ort.InputOutputInfo
	for i := range inputs {
		if inputs[i].Name == inputName {
			inputInfo = &inputs[i]
		}
	}
	if inputInfo == nil {
		return nil, fmt.Errorf("onnx: model has no input %q", inputName)
	}
	if dims := inputInfo.Dimensions; len(dims) == 2 && dims[1] > 0 && dims[1] != int64(numFeatures) {
		return nil, fmt.Errorf("onnx: input %q expects %d features, artifact lists %d", inputName, dims[1], numFeatures)
	}

	outputName := p.OutputName
	if outputName == "" {
		outputName = outputs[0].Name
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &onnxClassifier{session: session, numFeatures: numFeatures}, nil
}

func (c *onnxClassifier) NumFeatures() int { return c.numFeatures }

func (c *onnxClassifier) Predict(rows [][]float64) ([]int, error) {
	data := make([]float32, 0, len(rows)*c.numFeatures)
	for _, row := range rows {
		if err := features.CheckShape(row, c.numFeatures); err != nil {
			return nil, err
		}
		for _, x := range row {
			data = append(data, float32(x))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(c.numFeatures)), data)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	labels := make([]int, 0, len(rows))
	switch t := outputs[0].(type) {
	case *ort.Tensor[int64]:
		for _, v := range t.GetData() {
			labels = append(labels, int(v))
		}
	case *ort.Tensor[int32]:
		for _, v := range t.GetData() {
			labels = append(labels, int(v))
		}
	case *ort.Tensor[float32]:
		if labels, err = floatLabels(t.GetData()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("onnx: unsupported label output type %T", outputs[0])
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("onnx: got %d labels for %d rows", len(labels), len(rows))
	}
	return labels, nil
}

// floatLabels accepts a float label output only when every value is a whole
// number. Probabilities or scores are rejected rather than truncated.
func floatLabels(data []float32) ([]int, error) {
	labels := make([]int, 0, len(data))
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, fmt.Errorf("onnx: output %d is %v, not an integral label", i, v)
		}
		labels = append(labels, int(f))
	}
	return labels, nil
}

func (c *onnxClassifier) Close() error {
	return c.session.Destroy()
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
