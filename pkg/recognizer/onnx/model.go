package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"anymouse-hq/anymouse/pkg/recognizer"
)

const (
	defaultSeqLen   = 256
	defaultSessions = 2
)

// Config describes a token-classification model on disk.
type Config struct {
	// ModelDir holds model.onnx, vocab.txt and labels.yaml or config.json.
	ModelDir string
	// SharedLibraryPath overrides onnxruntime library discovery.
	SharedLibraryPath string
	SeqLen            int
	Sessions          int
	LowerCase         bool
	// LabelMap maps model labels (without B-/I-) to entity types. Labels
	// missing from the map are dropped. Defaults to DefaultLabelMap.
	LabelMap map[string]string
}

type session struct {
	run           *ort.AdvancedSession
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func (s *session) destroy() {
	if s.run != nil {
		_ = s.run.Destroy()
	}
	if s.inputIDs != nil {
		_ = s.inputIDs.Destroy()
	}
	if s.attentionMask != nil {
		_ = s.attentionMask.Destroy()
	}
	if s.output != nil {
		_ = s.output.Destroy()
	}
}

// Model is a Recognizer backed by an ONNX token-classification model.
// Recognize is safe for concurrent use; concurrency is bounded by the
// number of pooled sessions.
type Model struct {
	tokenizer   *WordPieceTokenizer
	labels      []string
	labelMap    map[string]string
	entityTypes []string
	seqLen      int

	sessions chan *session
	all      []*session
	logger   *slog.Logger

	closeOnce sync.Once
}

// Load initializes the onnxruntime environment and builds the session pool.
func Load(cfg Config) (*Model, error) {
	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("%w: model directory is empty", recognizer.ErrUnavailable)
	}
	if cfg.SeqLen <= 0 {
		cfg.SeqLen = defaultSeqLen
	}
	if cfg.Sessions <= 0 {
		cfg.Sessions = defaultSessions
	}
	if cfg.LabelMap == nil {
		cfg.LabelMap = DefaultLabelMap
	}

	modelPath := filepath.Join(cfg.ModelDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: model file missing at %s: %v", recognizer.ErrUnavailable, modelPath, err)
	}
	labels, err := loadLabels(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: load labels: %v", recognizer.ErrUnavailable, err)
	}
	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(cfg.ModelDir, "vocab.txt"), cfg.LowerCase)
	if err != nil {
		return nil, fmt.Errorf("%w: load tokenizer: %v", recognizer.ErrUnavailable, err)
	}

	libPath := cfg.SharedLibraryPath
	if libPath == "" {
		libPath = resolveSharedLibraryPath(cfg.ModelDir)
	}
	if libPath == "" {
		return nil, fmt.Errorf("%w: onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH", recognizer.ErrUnavailable)
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", recognizer.ErrUnavailable, err)
		}
	}

	m := &Model{
		tokenizer:   tokenizer,
		labels:      labels,
		labelMap:    normalizeLabelMap(cfg.LabelMap),
		entityTypes: mappedTypes(labels, cfg.LabelMap),
		seqLen:      cfg.SeqLen,
		sessions:    make(chan *session, cfg.Sessions),
		logger:      slog.Default().With("component", "recognizer.onnx"),
	}
	for i := 0; i < cfg.Sessions; i++ {
		s, err := newSession(modelPath, cfg.SeqLen, len(labels))
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("%w: %v", recognizer.ErrUnavailable, err)
		}
		m.all = append(m.all, s)
		m.sessions <- s
	}

	m.logger.Info("model loaded",
		"dir", cfg.ModelDir,
		"labels", len(labels),
		"seq_len", cfg.SeqLen,
		"sessions", cfg.Sessions,
	)
	return m, nil
}

func newSession(modelPath string, seqLen, numLabels int) (*session, error) {
	s := &session{}
	var err error
	inputShape := ort.NewShape(1, int64(seqLen))
	if s.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	if s.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		s.destroy()
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	if s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(numLabels))); err != nil {
		s.destroy()
		return nil, fmt.Errorf("allocate logits tensor: %w", err)
	}
	s.run, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{s.inputIDs, s.attentionMask},
		[]ort.Value{s.output},
		nil,
	)
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return s, nil
}

// Recognize runs the model over text and returns merged entity spans.
func (m *Model) Recognize(text string) ([]recognizer.Entity, error) {
	if m == nil || m.sessions == nil {
		return nil, recognizer.ErrUnavailable
	}
	windows := m.tokenizer.Windows(text, m.seqLen)
	if len(windows) == 0 {
		return nil, nil
	}

	s, ok := <-m.sessions
	if !ok {
		return nil, fmt.Errorf("%w: model closed", recognizer.ErrUnavailable)
	}
	defer func() { m.sessions <- s }()

	var (
		labels  []string
		offsets []tokenOffset
	)
	for _, w := range windows {
		copy(s.inputIDs.GetData(), w.ids)
		copy(s.attentionMask.GetData(), w.mask)
		if err := s.run.Run(); err != nil {
			return nil, fmt.Errorf("onnx inference: %w", err)
		}
		labels = append(labels, argmaxLabels(s.output.GetData(), m.seqLen, m.labels)...)
		offsets = append(offsets, w.offsets...)
	}
	return decodeEntities(text, labels, offsets, m.labelMap), nil
}

// EntityTypes returns the engine types this model can produce.
func (m *Model) EntityTypes() []string {
	return append([]string(nil), m.entityTypes...)
}

// Name identifies the backend.
func (m *Model) Name() string { return "onnx" }

// Close releases every pooled session. Recognize calls after Close return
// ErrUnavailable; Close must not race with an in-flight Recognize.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		close(m.sessions)
		for range m.sessions {
		}
		for _, s := range m.all {
			s.destroy()
		}
		m.all = nil
	})
}

func argmaxLabels(logits []float32, seqLen int, labels []string) []string {
	n := len(labels)
	out := make([]string, seqLen)
	for i := 0; i < seqLen; i++ {
		row := logits[i*n : (i+1)*n]
		best := 0
		for j := 1; j < n; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		out[i] = labels[best]
	}
	return out
}

func normalizeLabelMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// mappedTypes lists the engine types reachable from the model's labels, in
// the canonical order of recognizer.DefaultEntityTypes followed by any
// custom types sorted by name.
func mappedTypes(labels []string, labelMap map[string]string) []string {
	norm := normalizeLabelMap(labelMap)
	seen := make(map[string]bool)
	for _, lbl := range labels {
		_, raw := splitLabel(lbl)
		if typ, ok := norm[strings.ToUpper(raw)]; ok {
			seen[typ] = true
		}
	}
	var out []string
	for _, typ := range recognizer.DefaultEntityTypes {
		if seen[typ] {
			out = append(out, typ)
			delete(seen, typ)
		}
	}
	var rest []string
	for typ := range seen {
		rest = append(rest, typ)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// resolveSharedLibraryPath locates the onnxruntime shared library. The
// ONNXRUNTIME_SHARED_LIBRARY_PATH environment variable wins.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}
	names := []string{"libonnxruntime.so", "libonnxruntime.dylib", "onnxruntime.dll"}
	dirs := []string{modelDir, filepath.Join(modelDir, "lib"), "/usr/local/lib", "/usr/lib", "/opt/homebrew/lib"}
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

var _ recognizer.Recognizer = (*Model)(nil)
