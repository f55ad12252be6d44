// Package prepare turns uploaded bytes into a decoded source image and renders
// that source into the working buffer submitted to OCR. Rendering is
// deterministic: the same source and options always yield pixel-identical
// buffers, and every call allocates a fresh buffer.
package prepare
