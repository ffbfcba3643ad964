package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Message flattens a validation failure into one caller-friendly sentence.
// Only the first failed rule is reported.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "job_title":
		return fmt.Sprintf("the provided title is invalid: titles must be non-blank and at most %d characters", maxTitleLength)
	case "video_file":
		return fmt.Sprintf("the provided video %q is invalid: only %s uploads are supported", fe.Value(), strings.Join(videoExtensions, ", "))
	case "supporting_file":
		return fmt.Sprintf("the provided document %q is invalid: supported extensions are %s", fe.Value(), strings.Join(supportingExtensions, ", "))
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	default:
		return fe.Error()
	}
}
