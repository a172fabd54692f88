package server

import (
	"fmt"
	"io"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/config"
	"anymouse-hq/anymouse/pkg/recognizer"
	"anymouse-hq/anymouse/pkg/recognizer/onnx"
)

// Engine is a built engine together with the recognizer it uses.
type Engine struct {
	*anonymize.Engine

	Recognizer recognizer.Recognizer
	Mode       recognizer.Mode

	closer io.Closer
}

// Close releases the model runtime, if one was loaded.
func (e *Engine) Close() error {
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

type modelCloser struct{ m *onnx.Model }

func (c modelCloser) Close() error {
	c.m.Close()
	return nil
}

// NewEngine selects the recognizer described by cfg.Recognizer and builds
// the engine around it. observer may be nil.
func NewEngine(cfg *config.Config, observer anonymize.Observer) (*Engine, error) {
	pattern := recognizer.NewPattern(recognizer.PatternConfig{
		Type:          cfg.Recognizer.Pattern.Type,
		MinWords:      cfg.Recognizer.Pattern.MinWords,
		ExtraDenylist: cfg.Recognizer.Pattern.ExtraDenylist,
	})

	var (
		loaded *onnx.Model
		load   recognizer.Loader
	)
	if cfg.Recognizer.Mode != "pattern" && cfg.Recognizer.Model.Dir != "" {
		m := cfg.Recognizer.Model
		load = func() (recognizer.Recognizer, error) {
			model, err := onnx.Load(onnx.Config{
				ModelDir:          m.Dir,
				SharedLibraryPath: m.SharedLibraryPath,
				SeqLen:            m.SeqLen,
				Sessions:          m.Sessions,
				LowerCase:         m.LowerCase,
				LabelMap:          m.LabelMap,
			})
			if err != nil {
				return nil, err
			}
			loaded = model
			return model, nil
		}
	}

	rec, mode, err := recognizer.Select(load, cfg.Recognizer.Mode == "model", pattern)
	if err != nil {
		return nil, err
	}

	engine, err := anonymize.New(anonymize.Config{
		Recognizer:       rec,
		Fallback:         pattern,
		Prefixes:         cfg.Engine.Prefixes,
		StructuredPrefix: cfg.Engine.StructuredPrefix,
		Observer:         observer,
	})
	if err != nil {
		if loaded != nil {
			loaded.Close()
		}
		return nil, fmt.Errorf("build engine: %w", err)
	}

	e := &Engine{Engine: engine, Recognizer: rec, Mode: mode}
	if loaded != nil {
		e.closer = modelCloser{loaded}
	}
	return e, nil
}
