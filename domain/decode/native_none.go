//go:build !gocv

package decode

// DetectNative reports no platform detector in builds without OpenCV.
func DetectNative() NativeSupport { return Absent() }
