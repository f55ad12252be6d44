package ocr

import "strconv"

// EngineOption mutates the request a job sends to its engine factory.
type EngineOption func(*EngineRequest)

// WithParam sets a single engine-specific parameter.
func WithParam(key, value string) EngineOption {
	return func(req *EngineRequest) {
		if req.Params == nil {
			req.Params = make(map[string]string)
		}
		req.Params[key] = value
	}
}

// WithParams copies engine-specific parameters into the request.
func WithParams(params map[string]string) EngineOption {
	return func(req *EngineRequest) {
		for k, v := range params {
			WithParam(k, v)(req)
		}
	}
}

// WithTesseractPSM sets the page segmentation mode (PSM) variable for Tesseract.
// See https://tesseract-ocr.github.io/tessdoc/ImproveQuality.html#page-segmentation-method for values.
func WithTesseractPSM(mode int) EngineOption {
	return WithParam("tessedit_pageseg_mode", strconv.Itoa(mode))
}

// WithTesseractWhitelist restricts recognition to the provided characters.
func WithTesseractWhitelist(chars string) EngineOption {
	return WithParam("tessedit_char_whitelist", chars)
}

// WithDPI hints the effective resolution of the buffer.
func WithDPI(dpi int) EngineOption {
	return WithParam("user_defined_dpi", strconv.Itoa(dpi))
}
