package validator

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const maxTitleLength = 200

var (
	videoExtensions      = []string{".mp4"}
	supportingExtensions = []string{".pdf", ".docx", ".txt", ".xlsx"}
)

func titleValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if strings.TrimSpace(val) == "" {
		return false
	}

	return utf8.RuneCountInString(val) <= maxTitleLength
}

func videoFileValidator(fl validator.FieldLevel) bool {
	return hasAllowedExtension(fl, videoExtensions)
}

func supportingFileValidator(fl validator.FieldLevel) bool {
	return hasAllowedExtension(fl, supportingExtensions)
}

func hasAllowedExtension(fl validator.FieldLevel, allowed []string) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	ext := strings.ToLower(filepath.Ext(val))
	if ext == "" {
		return false
	}

	return slices.Contains(allowed, ext)
}
