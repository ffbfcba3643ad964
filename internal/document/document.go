// Package document extracts plain text from supporting material. Extraction
// is best effort: unknown formats and extraction failures yield an empty
// string so the analysis proceeds without the extra context.
package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Extract returns the text content of the document at path.
func Extract(path string) string {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		text, err = extractTxt(path)
	case ".pdf":
		text, err = extractPdf(path)
	case ".docx":
		text, err = extractDocx(path)
	case ".xlsx":
		text, err = extractXlsx(path)
	default:
		return ""
	}
	if err != nil {
		zap.S().Named("document").Warnf("Could not extract text from %s: %v", path, err)
		return ""
	}
	return text
}

func extractTxt(path string) (string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func extractPdf(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, text); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type docxBody struct {
	Paragraphs []struct {
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		payload, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var body docxBody
		if err := xml.Unmarshal(payload, &body); err != nil {
			return "", err
		}

		lines := make([]string, 0, len(body.Paragraphs))
		for _, paragraph := range body.Paragraphs {
			var sb strings.Builder
			for _, run := range paragraph.Runs {
				sb.WriteString(run.Text)
			}
			lines = append(lines, sb.String())
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("word/document.xml not found in %s", path)
}

func extractXlsx(path string) (string, error) {
	excelFile, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer excelFile.Close()

	var lines []string
	for _, sheet := range excelFile.GetSheetList() {
		rows, err := excelFile.GetRows(sheet)
		if err != nil {
			zap.S().Named("document").Warnf("Could not read sheet %s: %v", sheet, err)
			continue
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
