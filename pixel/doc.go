// Package pixel holds the pure pixel-buffer operations used to prepare a
// document image for OCR: downscale dimension computation, luma, grayscale
// mapping and hard thresholding. Filters run through imaging and are written
// back into the caller's non-premultiplied RGBA buffer in place.
package pixel
