package app

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/infrastructure/storage"
)

func newTestResultStore(t *testing.T) (*ResultStore, *storage.FileArtifactStore) {
	t.Helper()
	files := newTestStore(t)
	return NewResultStore(storage.NewMemorySessionRepository(), files, zap.NewNop()), files
}

func writeRunFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	return path
}

func newVideoResult(t *testing.T, files *storage.FileArtifactStore, frames ...int) *entity.VideoResult {
	t.Helper()
	dir, err := files.NewRunDir()
	require.NoError(t, err)

	result := &entity.VideoResult{
		AnnotatedVideoPath: writeRunFile(t, dir, VideoArtifactName("clip.mp4")),
		FrameCount:         10,
		FPS:                25,
	}
	for _, i := range frames {
		result.DamageFramePaths = append(result.DamageFramePaths, writeRunFile(t, dir, DamageFrameName(i)))
	}
	return result
}

func newImageResult(t *testing.T, files *storage.FileArtifactStore) *entity.ImageResult {
	t.Helper()
	dir, err := files.NewRunDir()
	require.NoError(t, err)
	return &entity.ImageResult{AnnotatedImagePath: writeRunFile(t, dir, ImageArtifactName("car.jpg"))}
}

func TestResultStore_GetWithoutResult(t *testing.T) {
	results, _ := newTestResultStore(t)

	_, err := results.Get(context.Background(), 1, 1)
	require.ErrorIs(t, err, entity.ErrNoResult)
}

func TestResultStore_GetIsIdempotent(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()
	video := newVideoResult(t, files, 2, 7)
	require.NoError(t, results.Set(ctx, 1, 1, video))

	first, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	second, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, video, first)
}

func TestResultStore_SetReplacesAndReleasesPrevious(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()

	old := newVideoResult(t, files, 1, 3)
	require.NoError(t, results.Set(ctx, 1, 1, old))
	fresh := newVideoResult(t, files, 4)
	require.NoError(t, results.Set(ctx, 1, 1, fresh))

	got, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	video, ok := got.(*entity.VideoResult)
	require.True(t, ok)
	require.Equal(t, fresh.DamageFramePaths, video.DamageFramePaths)

	require.NoDirExists(t, filepath.Dir(old.AnnotatedVideoPath))
	require.FileExists(t, fresh.AnnotatedVideoPath)
}

func TestResultStore_SessionsAreIsolated(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()

	a := newVideoResult(t, files, 1)
	b := newVideoResult(t, files, 2)
	require.NoError(t, results.Set(ctx, 1, 1, a))
	require.NoError(t, results.Set(ctx, 2, 2, b))

	got, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, a, got)
	require.FileExists(t, a.AnnotatedVideoPath)
}

func TestResultStore_ConsumeImageArtifact(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()
	image := newImageResult(t, files)
	require.NoError(t, results.Set(ctx, 1, 1, image))

	require.NoError(t, results.ConsumeImageArtifact(ctx, 1, 1, image))
	require.NoFileExists(t, image.AnnotatedImagePath)

	_, err := results.Get(ctx, 1, 1)
	require.ErrorIs(t, err, entity.ErrNoResult)
}

func TestResultStore_ConsumeKeepsNewerImage(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()
	shown := newImageResult(t, files)
	require.NoError(t, results.Set(ctx, 1, 1, shown))
	newer := newImageResult(t, files)
	require.NoError(t, results.Set(ctx, 1, 1, newer))

	require.NoError(t, results.ConsumeImageArtifact(ctx, 1, 1, shown))
	require.NoFileExists(t, shown.AnnotatedImagePath)
	require.FileExists(t, newer.AnnotatedImagePath)

	got, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, newer, got)
}

func TestResultStore_ConsumeKeepsNewerVideo(t *testing.T) {
	results, files := newTestResultStore(t)
	ctx := context.Background()
	shown := newImageResult(t, files)
	require.NoError(t, results.Set(ctx, 1, 1, shown))
	video := newVideoResult(t, files, 2)
	require.NoError(t, results.Set(ctx, 1, 1, video))

	require.NoError(t, results.ConsumeImageArtifact(ctx, 1, 1, shown))
	require.FileExists(t, video.AnnotatedVideoPath)
	require.FileExists(t, video.DamageFramePaths[0])

	got, err := results.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.ResultVideo, got.Kind())
}

func TestResultStore_ConsumeNothing(t *testing.T) {
	results, _ := newTestResultStore(t)

	err := results.ConsumeImageArtifact(context.Background(), 1, 1, nil)
	require.ErrorIs(t, err, entity.ErrNoResult)
}

func TestResultStore_PackageFramesAsArchive(t *testing.T) {
	results, files := newTestResultStore(t)
	video := newVideoResult(t, files, 2, 7)

	var delivered string
	err := results.PackageFramesAsArchive(video.DamageFramePaths, func(path string) error {
		delivered = path
		require.FileExists(t, path)

		zr, err := zip.OpenReader(path)
		require.NoError(t, err)
		defer zr.Close()
		require.Len(t, zr.File, 2)
		require.Equal(t, "frame_0002.jpg", zr.File[0].Name)
		require.Equal(t, "frame_0007.jpg", zr.File[1].Name)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, delivered)
	require.NoFileExists(t, delivered)

	// архив не трогает сами кадры
	for _, path := range video.DamageFramePaths {
		require.FileExists(t, path)
	}
}

func TestResultStore_PackageFramesEmptyList(t *testing.T) {
	results, _ := newTestResultStore(t)

	err := results.PackageFramesAsArchive(nil, func(path string) error {
		zr, err := zip.OpenReader(path)
		require.NoError(t, err)
		defer zr.Close()
		require.Empty(t, zr.File)
		return nil
	})
	require.NoError(t, err)
}

func TestResultStore_PackageFramesDeliveryFailure(t *testing.T) {
	results, files := newTestResultStore(t)
	video := newVideoResult(t, files, 2)
	sendErr := errors.New("telegram is down")

	var delivered string
	err := results.PackageFramesAsArchive(video.DamageFramePaths, func(path string) error {
		delivered = path
		return sendErr
	})
	require.ErrorIs(t, err, sendErr)
	require.NoFileExists(t, delivered)
}

func TestResultStore_PackageMissingFrame(t *testing.T) {
	results, files := newTestResultStore(t)
	video := newVideoResult(t, files, 2)
	paths := append(video.DamageFramePaths, filepath.Join(files.Root(), "missing.jpg"))

	called := false
	err := results.PackageFramesAsArchive(paths, func(string) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, entity.ErrArtifactIO)
	require.False(t, called)

	matches, err := filepath.Glob(filepath.Join(files.Root(), "*.zip"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestResultStore_ReleaseEndsSession(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	files := newTestStore(t)
	results := NewResultStore(repo, files, zap.NewNop())
	ctx := context.Background()

	video := newVideoResult(t, files, 2)
	require.NoError(t, results.Set(ctx, 1, 1, video))
	require.NoError(t, repo.UpdateState(ctx, 1, entity.StateProcessing))

	require.NoError(t, results.Release(ctx, 1, 1))
	require.NoDirExists(t, filepath.Dir(video.AnnotatedVideoPath))

	_, err := results.Get(ctx, 1, 1)
	require.ErrorIs(t, err, entity.ErrNoResult)

	// сессия создана заново
	session, err := repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, session.State)
}
