package fsutil

import "net/http"

// IsPNG sniffs the leading bytes of data.
func IsPNG(data []byte) bool {
	return http.DetectContentType(data) == "image/png"
}
