package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"malaria_clinic/internal/classifier"
	"malaria_clinic/internal/models"
	"malaria_clinic/internal/uploads"
)

const defaultThreshold = classifier.DefaultThreshold

var (
	ErrEmptyFilename     = errors.New("no selected file")
	ErrInvalidFileFormat = errors.New("invalid file format")
)

type PredictionService struct {
	scorer    Scorer
	store     UploadStore
	threshold float64
}

func NewPredictionService(scorer Scorer, store UploadStore, threshold float64) *PredictionService {
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultThreshold
	}
	return &PredictionService{scorer: scorer, store: store, threshold: threshold}
}

// Interpret maps a score to a label; the threshold itself is Uninfected.
func Interpret(score, threshold float64) string {
	if score > threshold {
		return models.LabelInfected
	}
	return models.LabelUninfected
}

// Predict stores the upload in the scratch dir, scores it and removes the
// file again, whether or not scoring succeeded.
func (s *PredictionService) Predict(ctx context.Context, filename string, r io.Reader) (pred models.Prediction, err error) {
	if filename == "" {
		return models.Prediction{}, ErrEmptyFilename
	}
	if !uploads.AllowedFile(filename) {
		return models.Prediction{}, ErrInvalidFileFormat
	}

	path, err := s.store.Save(filename, r)
	if err != nil {
		if errors.Is(err, uploads.ErrInvalidExtension) || errors.Is(err, uploads.ErrNotImage) {
			return models.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
		}
		return models.Prediction{}, fmt.Errorf("save upload: %w", err)
	}
	defer func() {
		if rerr := s.store.Remove(path); rerr != nil && err == nil {
			err = rerr
		}
	}()

	img, err := classifier.DecodeFile(path)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
	}
	w, h := s.scorer.InputSize()
	score, err := s.scorer.Predict(ctx, classifier.Preprocess(img, w, h))
	if err != nil {
		return models.Prediction{}, fmt.Errorf("classify %q: %w", filepath.Base(path), err)
	}

	return models.Prediction{
		Label:    Interpret(score, s.threshold),
		Score:    score,
		Filename: uploads.SanitizeFilename(filename),
	}, nil
}
