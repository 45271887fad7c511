package dto

// Error codes returned by the JSON endpoints.
const (
	CodeModelUnavailable  = "MODEL_UNAVAILABLE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeDecodeFailed      = "IMAGE_DECODE_FAILED"
	CodeImageTooLarge     = "IMAGE_TOO_LARGE"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeDetectionFailed   = "DETECTION_FAILED"
	CodeHistoryDisabled   = "HISTORY_DISABLED"
	CodeInternal          = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
