package validator

// NewUploadValidationRules covers the multipart job submission form: the
// optional display title plus the filenames of the video and the optional
// supporting document.
func NewUploadValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("job_title", titleValidator),
		},
		{
			Rule: registerFn("video_file", videoFileValidator),
		},
		{
			Rule: registerFn("supporting_file", supportingFileValidator),
		},
	}
}
