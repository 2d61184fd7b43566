package pbxproj

import "strings"

// Class is a block's classification group.
type Class int

const (
	// ClassMain covers app and pod targets.
	ClassMain Class = iota
	// ClassTest covers unit and UI test targets.
	ClassTest
)

// String returns the class name used in reports.
func (c Class) String() string {
	if c == ClassTest {
		return "test"
	}
	return "main"
}

// Classifier decides the class of a configuration block from its source
// text. Target-name matching is a naming convention rather than a
// structural guarantee, so the heuristic is pluggable.
type Classifier func(blockText string) Class

// DefaultTestMarkers detect test targets: TEST_HOST and BUNDLE_LOADER are
// structural (only test bundles set them); "Tests" covers conventional
// target naming such as RunnerTests.
var DefaultTestMarkers = []string{"TEST_HOST", "BUNDLE_LOADER", "Tests"}

// MarkerClassifier classifies a block as test when its text contains any
// of the given markers.
func MarkerClassifier(markers []string) Classifier {
	if len(markers) == 0 {
		markers = DefaultTestMarkers
	}
	return func(blockText string) Class {
		for _, m := range markers {
			if strings.Contains(blockText, m) {
				return ClassTest
			}
		}
		return ClassMain
	}
}
