package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

func formatValue(format string, data []byte) (string, error) {
	switch format {
	case formatHex:
		return hex.EncodeToString(data), nil
	case formatBase64:
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", fmt.Errorf("unsupported format %q, it must be one of %v", format, supportedFormats)
	}
}

func parseValue(format string, text string) ([]byte, error) {
	text = strings.Join(strings.Fields(text), "")
	switch format {
	case formatHex:
		return hex.DecodeString(text)
	case formatBase64:
		return base64.StdEncoding.DecodeString(text)
	default:
		return nil, fmt.Errorf("unsupported format %q, it must be one of %v", format, supportedFormats)
	}
}
