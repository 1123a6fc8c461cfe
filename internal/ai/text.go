package ai

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MinExtractedText is the shortest extraction we treat as a readable document.
const MinExtractedText = 50

var (
	ErrUnsupportedDocument = errors.New("only PDF and plain text documents can be parsed")
	ErrInsufficientText    = errors.New("could not extract enough text from the document")
)

// ExtractText returns the readable text of a PDF or plain text upload.
func ExtractText(filename string, data []byte) (string, error) {
	var text string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		t, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInsufficientText, err)
		}
		text = t
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", ErrUnsupportedDocument
		}
		text = string(data)
	default:
		return "", ErrUnsupportedDocument
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinExtractedText {
		return "", ErrInsufficientText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExtractJSON pulls a JSON object out of a model reply that may wrap it in
// prose or a fenced code block.
func ExtractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s, nil
	}
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), nil
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1], nil
	}
	return "", errors.New("no JSON object found in model reply")
}
