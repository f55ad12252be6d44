// Package ocr defines the recognition engine capability and the job that
// drives a single engine through initialization, recognition and teardown.
// Engines are capability-typed (create, recognize, terminate) so the
// Tesseract binding, remote services or test fakes can be swapped without
// touching the preprocessing code.
package ocr
