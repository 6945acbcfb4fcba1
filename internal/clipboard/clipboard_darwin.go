//go:build darwin

package clipboard

import "context"

func platformGrabbers() []grabber {
	return []grabber{{tool: "pngpaste", grab: grabPngpaste}}
}

// pngpaste exits non-zero when the pasteboard holds no image.
func grabPngpaste(ctx context.Context, run runner) ([]byte, error) {
	return run(ctx, "pngpaste", "-")
}
