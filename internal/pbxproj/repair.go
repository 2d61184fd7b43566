package pbxproj

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCollision is returned when rewriting still leaves two groups sharing
// an identifier. The repair reports it instead of writing a colliding file.
var ErrCollision = errors.New("bundle identifier collision remains after repair")

// Options configure a repair pass.
type Options struct {
	// BaseIdentifier is assigned unchanged to the first main group.
	BaseIdentifier string

	// Classify decides each block's group. Nil uses the default markers.
	Classify Classifier
}

// Assignment describes one group's identifier decision.
type Assignment struct {
	Class Class
	Group int // 1-based ordinal within the class
	Old   string
	New   string
}

// Repair assigns a unique identifier to every configuration group in doc.
//
// Consecutive blocks sharing classification and original identifier form a
// group (the Debug/Release/Profile configurations of one target), and a
// group receives a single identifier:
//
//	main  #1 → base          test #1 → base.tests
//	main  #n → base.app.n    test #n → base.tests.n
//
// Feeding the output back in reproduces it byte-for-byte: classification
// depends on block text markers, not on the identifier values themselves.
func Repair(doc *Document, opts Options) ([]Assignment, error) {
	if opts.BaseIdentifier == "" {
		return nil, fmt.Errorf("base identifier must not be empty")
	}
	classify := opts.Classify
	if classify == nil {
		classify = MarkerClassifier(nil)
	}

	var (
		assignments []Assignment
		mainGroups  int
		testGroups  int
		prevClass   Class
		prevOld     string
	)

	for i, block := range doc.Blocks {
		class := classify(block.Text(doc))

		newGroup := i == 0 || class != prevClass || block.Identifier != prevOld
		prevClass, prevOld = class, block.Identifier

		if newGroup {
			var id string
			switch class {
			case ClassTest:
				testGroups++
				id = opts.BaseIdentifier + ".tests"
				if testGroups > 1 {
					id = fmt.Sprintf("%s.tests.%d", opts.BaseIdentifier, testGroups)
				}
			default:
				mainGroups++
				id = opts.BaseIdentifier
				if mainGroups > 1 {
					id = fmt.Sprintf("%s.app.%d", opts.BaseIdentifier, mainGroups)
				}
			}
			assignments = append(assignments, Assignment{
				Class: class,
				Group: groupOrdinal(class, mainGroups, testGroups),
				Old:   block.Identifier,
				New:   id,
			})
		}

		block.NewIdentifier = assignments[len(assignments)-1].New
	}

	if err := validateUnique(assignments); err != nil {
		return assignments, err
	}
	return assignments, nil
}

// RepairPods rewrites placeholder identifiers in a Pods project so every
// pod target gets a distinct derivative of its original identifier.
// Identifiers that do not start with any placeholder prefix belong to
// intentionally distinct third-party pods and are left alone. Consecutive
// blocks sharing the same identifier and product name are one target's
// build configurations and count as one family; separated families that
// would land on the same identifier are a collision.
func RepairPods(doc *Document, placeholderPrefixes []string) ([]Assignment, error) {
	var assignments []Assignment

	prevFamily := ""
	for _, block := range doc.Blocks {
		if !hasPlaceholderPrefix(block.Identifier, placeholderPrefixes) {
			prevFamily = ""
			continue
		}

		name := sanitizeSegment(block.ProductName(doc))
		if name == "" {
			name = sanitizeSegment(lastSegment(block.Identifier))
		}
		if name == "" {
			prevFamily = ""
			continue
		}
		suffix := ".pod." + name

		// Already repaired on a previous run.
		if strings.HasSuffix(block.Identifier, suffix) {
			prevFamily = ""
			continue
		}

		block.NewIdentifier = block.Identifier + suffix

		family := block.Identifier + "\x00" + name
		if family == prevFamily {
			continue
		}
		prevFamily = family
		assignments = append(assignments, Assignment{
			Class: ClassMain,
			Group: len(assignments) + 1,
			Old:   block.Identifier,
			New:   block.NewIdentifier,
		})
	}

	if err := validateUnique(assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// validateUnique rejects any identifier shared by two distinct groups.
func validateUnique(assignments []Assignment) error {
	seen := make(map[string]Assignment, len(assignments))
	for _, a := range assignments {
		if dup, ok := seen[a.New]; ok {
			return fmt.Errorf("%w: %s assigned to %s group %d and %s group %d",
				ErrCollision, a.New, dup.Class, dup.Group, a.Class, a.Group)
		}
		seen[a.New] = a
	}
	return nil
}

func groupOrdinal(class Class, mainGroups, testGroups int) int {
	if class == ClassTest {
		return testGroups
	}
	return mainGroups
}

func hasPlaceholderPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

func lastSegment(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}

// sanitizeSegment lowercases a target name and strips anything that is not
// a letter or digit, so build-setting interpolations like $(TARGET_NAME)
// never leak into an identifier.
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
