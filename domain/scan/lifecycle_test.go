package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/capture/capturetest"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/domain/ocr"
)

type recorder struct {
	mu      sync.Mutex
	serials []string
	errs    []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSerialFound: func(s string) { r.mu.Lock(); r.serials = append(r.serials, s); r.mu.Unlock() },
		OnError:       func(m string) { r.mu.Lock(); r.errs = append(r.errs, m); r.mu.Unlock() },
	}
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.serials...), append([]string(nil), r.errs...)
}

// drive pulses the clock until the test ends.
func drive(t *testing.T, p *Pulse) {
	t.Helper()
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	go func() {
		tk := time.NewTicker(time.Millisecond)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-tk.C:
				p.Signal(now)
			}
		}
	}()
}

type fixture struct {
	cam   *capturetest.Camera
	rec   *recorder
	life  *Lifecycle
	sched *Scheduler
}

func newFixture(t *testing.T, img decode.Decoder, engine *ocr.Engine) *fixture {
	t.Helper()
	cam := &capturetest.Camera{Frames: []image.Image{capturetest.Solid(8, 8, color.White)}}
	pulse := NewPulse()
	drive(t, pulse)
	var tier OCRTier
	if engine != nil {
		tier = decode.NewOCRDecoder(engine, 1)
	}
	pipe := NewPipeline(PipelineConfig{Image: img, OCR: tier, Throttle: DefaultThrottle(), Logger: discardLogger()})
	sched := NewScheduler(pipe, pulse, discardLogger(), nil)
	rec := &recorder{}
	life := NewLifecycle(LifecycleDeps{
		Source:    capture.NewSource(cam, capture.Constraints{}, discardLogger()),
		Engine:    engine,
		Scheduler: sched,
		Native:    decode.Absent(),
		Callbacks: rec.callbacks(),
		Logger:    discardLogger(),
	})
	return &fixture{cam: cam, rec: rec, life: life, sched: sched}
}

func TestLifecycle_CameraDenied(t *testing.T) {
	f := newFixture(t, &fakeDecoder{name: decode.TierImage}, nil)
	f.cam.Err = errors.New("NotAllowedError: Permission denied")

	err := f.life.Start(context.Background())
	if !errors.Is(err, capture.ErrCameraUnavailable) {
		t.Fatalf("expected camera unavailable, got %v", err)
	}
	serials, errs := f.rec.snapshot()
	if len(serials) != 0 || len(errs) != 1 {
		t.Fatalf("serials=%v errs=%v", serials, errs)
	}
	if errs[0] != "Camera access failed: NotAllowedError: Permission denied" {
		t.Fatalf("unexpected message %q", errs[0])
	}
	if f.sched.State() != StateIdle {
		t.Fatalf("scheduler must stay idle, got %s", f.sched.State())
	}
	if _, ok := f.life.LatestFrame(); ok {
		t.Fatalf("no frame without a session")
	}
}

func TestLifecycle_FoundReleasesCamera(t *testing.T) {
	img := &fakeDecoder{name: decode.TierImage, fn: func(capture.Frame) (decode.Result, error) {
		return decode.Found(" evcs-001234 ", decode.TierImage), nil
	}}
	f := newFixture(t, img, nil)
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitClosed(t, f.sched.Done())

	serials, _ := f.rec.snapshot()
	if len(serials) != 1 || serials[0] != "EVCS-001234" {
		t.Fatalf("serials=%v", serials)
	}
	if f.cam.OpenTracks() != 0 {
		t.Fatalf("camera tracks left open: %d", f.cam.OpenTracks())
	}
	time.Sleep(20 * time.Millisecond)
	if serials, _ := f.rec.snapshot(); len(serials) != 1 {
		t.Fatalf("reported more than once: %v", serials)
	}
}

func TestLifecycle_StopReleasesWithoutCallback(t *testing.T) {
	f := newFixture(t, &fakeDecoder{name: decode.TierImage}, nil)
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.life.Start(context.Background()); !errors.Is(err, ErrAlreadyScanning) {
		t.Fatalf("expected ErrAlreadyScanning, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for f.life.Metrics().FrameCount < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	f.life.Stop()
	f.life.Stop()
	if f.cam.OpenTracks() != 0 {
		t.Fatalf("camera tracks left open after stop")
	}
	waitClosed(t, f.sched.Done())
	if serials, _ := f.rec.snapshot(); len(serials) != 0 {
		t.Fatalf("no serial expected, got %v", serials)
	}
	if f.cam.Requests() != 1 {
		t.Fatalf("camera requested %d times", f.cam.Requests())
	}

	// Sessions may cycle.
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	f.life.Stop()
	waitClosed(t, f.sched.Done())
	if f.cam.OpenTracks() != 0 {
		t.Fatalf("camera tracks left open after second stop")
	}
}

func TestLifecycle_RestartWhileLoopExiting(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	img := &fakeDecoder{name: decode.TierImage, fn: func(capture.Frame) (decode.Result, error) {
		once.Do(func() {
			close(entered)
			<-unblock
		})
		return decode.NotFound(), nil
	}}
	f := newFixture(t, img, nil)
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-entered
	f.life.Stop()

	if err := f.life.Start(context.Background()); !errors.Is(err, ErrAlreadyScanning) {
		t.Fatalf("expected ErrAlreadyScanning, got %v", err)
	}
	if f.cam.Requests() != 1 {
		t.Fatalf("camera must not be reopened while the old loop runs, requests=%d", f.cam.Requests())
	}

	close(unblock)
	waitClosed(t, f.sched.Done())
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	f.life.Stop()
	waitClosed(t, f.sched.Done())
	if img.overlap.Load() {
		t.Fatalf("decoder steps overlapped")
	}
}

func TestLifecycle_OCRFailureKeepsImageTier(t *testing.T) {
	engine := ocr.NewEngine(func(context.Context, ocr.Options) (ocr.Recognizer, error) {
		return nil, errors.New("traineddata missing")
	}, ocr.Options{Language: "eng"}, discardLogger())
	img := &fakeDecoder{name: decode.TierImage, fn: func(capture.Frame) (decode.Result, error) {
		return decode.Found("img-1", decode.TierImage), nil
	}}
	f := newFixture(t, img, engine)
	if err := f.life.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := f.life.Init(context.Background()); !errors.Is(err, ocr.ErrAlreadyInitialized) {
		t.Fatalf("second init: %v", err)
	}
	_ = engine.Wait(context.Background())
	if f.life.OCRState() != ocr.StateFailed {
		t.Fatalf("ocr state %s", f.life.OCRState())
	}
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitClosed(t, f.sched.Done())
	if serials, _ := f.rec.snapshot(); len(serials) != 1 || serials[0] != "IMG-1" {
		t.Fatalf("serials=%v", serials)
	}
	if err := f.life.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if f.life.OCRState() != ocr.StateTerminated {
		t.Fatalf("ocr state after shutdown %s", f.life.OCRState())
	}
}

func TestLifecycle_Submit(t *testing.T) {
	f := newFixture(t, &fakeDecoder{name: decode.TierImage}, nil)
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.life.Submit("   ") {
		t.Fatalf("blank input must be ignored")
	}
	if !f.life.Submit(" evcs-001234 ") {
		t.Fatalf("submit rejected")
	}
	waitClosed(t, f.sched.Done())
	serials, _ := f.rec.snapshot()
	if len(serials) != 1 || serials[0] != "EVCS-001234" {
		t.Fatalf("serials=%v", serials)
	}
	if f.sched.State() != StateStopped || f.cam.OpenTracks() != 0 {
		t.Fatalf("submit must end the scan: state=%s tracks=%d", f.sched.State(), f.cam.OpenTracks())
	}
}

func TestLifecycle_ShutdownWhileScanning(t *testing.T) {
	f := newFixture(t, &fakeDecoder{name: decode.TierImage}, nil)
	if err := f.life.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.life.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if f.cam.OpenTracks() != 0 {
		t.Fatalf("tracks open after shutdown")
	}
	if f.sched.State() != StateStopped {
		t.Fatalf("state %s", f.sched.State())
	}
}
