package analysis

import "strings"

// Older analysis deployments report an unreadable text layer only in the
// message. These fragments are matched case-insensitively.
var unreadableFragments = []string{
	"unreadable_pdf",
	"unreadable pdf",
	"text extraction failed",
	"failed to extract text",
	"could not extract text",
	"no extractable text",
	"no text layer",
}

// Classify resolves a failure to an ErrorType. A known structured code wins;
// otherwise the message is checked for the legacy unreadable-PDF wording and
// anything else is a server error.
func Classify(code string, message string) ErrorType {
	switch ErrorType(strings.ToUpper(strings.TrimSpace(code))) {
	case ErrorUpload:
		return ErrorUpload
	case ErrorServer:
		return ErrorServer
	case ErrorUnreadablePDF:
		return ErrorUnreadablePDF
	case ErrorConversion:
		return ErrorConversion
	}

	lower := strings.ToLower(message + " " + code)
	for _, fragment := range unreadableFragments {
		if strings.Contains(lower, fragment) {
			return ErrorUnreadablePDF
		}
	}
	return ErrorServer
}
