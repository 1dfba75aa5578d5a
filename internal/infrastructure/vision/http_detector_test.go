package vision

import (
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"damage-bot/internal/domain/entity"
)

func newInferenceServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		img, err := jpeg.Decode(file)
		require.NoError(t, err)
		require.Equal(t, 32, img.Bounds().Dx())

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDetector_Detect(t *testing.T) {
	srv := newInferenceServer(t, `{"detections":[
		{"label":"dent","confidence":0.91,"bbox":[12.4,8.9,100.1,50.0]},
		{"label":"scratch","confidence":0.10,"bbox":[0,0,1,1]},
		{"label":"crack","confidence":0.75,"bbox":[60,60,120,120]}
	]}`)
	d := NewHTTPDetector(srv.URL+"/predict", 0.25, 5*time.Second)

	detections, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 32, 16)))
	require.NoError(t, err)
	require.Len(t, detections, 2)

	require.Equal(t, "dent", detections[0].Label)
	require.Equal(t, entity.BBox{XMin: 12, YMin: 8, XMax: 100, YMax: 50}, detections[0].Box)
	require.Equal(t, "crack", detections[1].Label)
}

func TestHTTPDetector_NoDetections(t *testing.T) {
	srv := newInferenceServer(t, `{"detections":[]}`)
	d := NewHTTPDetector(srv.URL+"/predict", 0.25, 5*time.Second)

	detections, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 32, 16)))
	require.NoError(t, err)
	require.Empty(t, detections)
}

func TestHTTPDetector_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	d := NewHTTPDetector(srv.URL+"/predict", 0, time.Second)

	_, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestHTTPDetector_CheckHealth(t *testing.T) {
	srv := newInferenceServer(t, `{}`)

	d := NewHTTPDetector(srv.URL+"/predict", 0, time.Second)
	require.NoError(t, d.CheckHealth(context.Background()))

	d = NewHTTPDetector(srv.URL+"/v1/missing/predict", 0, time.Second)
	require.Error(t, d.CheckHealth(context.Background()))
}
