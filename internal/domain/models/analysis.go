package models

import "time"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type (
	// AnalysisResult is what the pipeline hands back to its caller.
	AnalysisResult struct {
		Text       string
		Model      string
		Confidence Confidence
	}

	// ErrorAnalysis is the persisted form of an AnalysisResult.
	ErrorAnalysis struct {
		ID           int64
		ErrorEventID int64
		AnalysisText string
		Model        string
		Confidence   Confidence
		CreatedAt    time.Time
	}
)
