package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBBox_TruncatesTowardZero(t *testing.T) {
	b := NewBBox(12.4, 8.9, 100.1, 50.0)
	require.Equal(t, "[12, 8, 100, 50]", b.String())
}

func TestNewBBox_Canonical(t *testing.T) {
	b := NewBBox(50, 60, 10, 20)
	require.Equal(t, BBox{XMin: 10, YMin: 20, XMax: 50, YMax: 60}, b)
}

func TestNewDetectionRecords_KeepsDetectorOrder(t *testing.T) {
	detections := []Detection{
		{Label: "dent", Confidence: 0.91, Box: BBox{10, 10, 50, 50}},
		{Label: "crack", Confidence: 0.75, Box: BBox{60, 60, 120, 120}},
	}

	records := NewDetectionRecords(detections)
	require.Len(t, records, 2)
	require.Equal(t, DetectionRecord{Index: 1, Label: "dent", Confidence: "0.91", BBox: "[10, 10, 50, 50]"}, records[0])
	require.Equal(t, DetectionRecord{Index: 2, Label: "crack", Confidence: "0.75", BBox: "[60, 60, 120, 120]"}, records[1])
}

func TestNewDetectionRecords_LowConfidenceFirstIsNotResorted(t *testing.T) {
	detections := []Detection{
		{Label: "scratch", Confidence: 0.3},
		{Label: "dent", Confidence: 0.956},
	}

	records := NewDetectionRecords(detections)
	require.Equal(t, "scratch", records[0].Label)
	require.Equal(t, "0.96", records[1].Confidence)
}

func TestNewDetectionRecords_Empty(t *testing.T) {
	require.Empty(t, NewDetectionRecords(nil))
}
