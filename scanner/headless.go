package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soocke/serialscan/domain/ocr"
)

// ErrTimeout is returned by Run when no serial was found in time.
var ErrTimeout = errors.New("scan timed out")

// Run loads OCR, scans until the first serial and returns it. A refused
// camera, ctx cancellation or timeout ends the scan with an error. A zero
// timeout waits until ctx is done. Run may be called again on the same
// container; it first waits for the previous scan loop to exit.
func (c *Container) Run(ctx context.Context, timeout time.Duration) (string, error) {
	if c.Pulse != nil {
		return "", errors.New("scanner: Run needs a headless container")
	}
	select {
	case <-c.Scheduler.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	c.drain()
	if err := c.Lifecycle.Init(ctx); err != nil && !errors.Is(err, ocr.ErrAlreadyInitialized) {
		return "", err
	}
	if err := c.Lifecycle.Start(ctx); err != nil {
		return "", err
	}
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case serial := <-c.found:
		return serial, nil
	case msg := <-c.failed:
		return "", errors.New(msg)
	case <-expired:
		c.Lifecycle.Stop()
		m := c.Lifecycle.Metrics()
		return "", fmt.Errorf("%w after %d frames (%d ocr attempts)", ErrTimeout, m.FrameCount, m.OCRAttempts)
	case <-ctx.Done():
		c.Lifecycle.Stop()
		return "", ctx.Err()
	}
}

// drain drops results left over from an earlier Run.
func (c *Container) drain() {
	for {
		select {
		case <-c.found:
		case <-c.failed:
		default:
			return
		}
	}
}
