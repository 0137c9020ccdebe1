package main

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	calls int
	err   error
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context) (*image.RGBA, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: uint8(f.calls), A: 255})
	return img, nil
}

func TestCaptureWritesNumberedFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	snap := &fakeSnapshotter{}
	require.NoError(t, capture(context.Background(), snap, dir, 3, time.Millisecond))
	assert.Equal(t, 3, snap.calls)

	for i, name := range []string{"frame-00000.png", "frame-00001.png", "frame-00002.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
		r, _, _, _ := img.At(0, 0).RGBA()
		assert.Equal(t, uint32(i+1)*0x101, r)
	}
}

func TestCaptureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := &fakeSnapshotter{}
	require.NoError(t, capture(ctx, snap, t.TempDir(), 5, time.Hour))
	assert.Zero(t, snap.calls)
}

func TestCaptureSnapshotError(t *testing.T) {
	failed := errors.New("read back failed")
	err := capture(context.Background(), &fakeSnapshotter{err: failed}, t.TempDir(), 2, time.Millisecond)
	require.ErrorIs(t, err, failed)
}

func TestCaptureRejectsBadArguments(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, capture(context.Background(), &fakeSnapshotter{}, dir, 0, time.Second))
	require.Error(t, capture(context.Background(), &fakeSnapshotter{}, dir, 1, 0))
}

func TestHeadlessDefaults(t *testing.T) {
	opts := parse(t, "-headless", "-frames", "4", "-interval", "250ms")
	assert.True(t, *opts.Headless)
	assert.Equal(t, 4, *opts.Frames)
	assert.Equal(t, 250*time.Millisecond, *opts.Interval)
	assert.Equal(t, "frames", *opts.Output)
}
