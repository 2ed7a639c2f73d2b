package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"activity-platform/internal/models"
)

// DaySummaryFileName is the GGIR part5 day-summary export this pipeline
// consumes. Matching is case-insensitive because the share mixes exports
// from macOS and Windows machines.
const DaySummaryFileName = "part5_daysummary_MM_L44.8M100.6V428.8_T5A5.csv"

// ValidateSubjectNumber checks that a subject number is exactly four
// ASCII digits starting with 7, 8, or 9. Messages are operator-facing:
// the interactive prompt reuses them verbatim.
func ValidateSubjectNumber(value string) error {
	if value == "" {
		return &models.ValidationError{
			Field:   "subject_number",
			Value:   value,
			Message: "A subject number is required.",
		}
	}

	if len(value) != 4 || !allDigits(value) {
		return &models.ValidationError{
			Field:   "subject_number",
			Value:   value,
			Message: "Subject numbers must be a four-digit integer.",
		}
	}

	switch value[0] {
	case '7', '8', '9':
		return nil
	default:
		return &models.ValidationError{
			Field:   "subject_number",
			Value:   value,
			Message: "Subject numbers must start with 7, 8, or 9.",
		}
	}
}

func allDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RouteForSubject maps a subject number onto its study arm and dataset.
// Subjects starting with 7 belong to the observational arm; 8 and 9 are
// intervention cohorts sharing one dataset.
func RouteForSubject(subjectNumber string) (study, dataset string, err error) {
	if subjectNumber == "" {
		return "", "", fmt.Errorf("subject number cannot be empty")
	}

	switch subjectNumber[0] {
	case '7':
		return "ObservationalStudy", "act-obs-final-test-2", nil
	case '8', '9':
		return "InterventionStudy", "act-int-final-test-2", nil
	default:
		return "", "", fmt.Errorf("no study route for subject number %q", subjectNumber)
	}
}

// SubjectDirectory builds the accelerometer derivatives directory for a
// subject under the share root.
func SubjectDirectory(sharePath, subjectNumber string) (string, error) {
	study, dataset, err := RouteForSubject(subjectNumber)
	if err != nil {
		return "", err
	}

	return filepath.Join(
		sharePath,
		"Projects",
		"BOOST",
		study,
		"3-experiment",
		"data",
		dataset,
		"derivatives",
		"GGIR-3.2.6",
		"sub-"+subjectNumber,
		"accel",
	), nil
}

// DiscoverDaySummaries walks the subject directory and collects every
// regular file whose base name matches DaySummaryFileName, ignoring case.
// Symlinks are not followed. Unreadable subtrees are skipped; only a
// root that cannot be walked at all is an error.
func DiscoverDaySummaries(root string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(d.Name(), DaySummaryFileName) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return matches, nil
}
