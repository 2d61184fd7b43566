// Package pbxproj repairs bundle-identifier collisions in Xcode project
// descriptors. The file is parsed into a model of build-configuration
// blocks, identifiers are reassigned on the model, and the file is
// serialized back with every byte outside the rewritten values unchanged.
package pbxproj

import (
	"bytes"
	"fmt"
	"regexp"
)

// identifierKey is the build setting this package rewrites.
const identifierKey = "PRODUCT_BUNDLE_IDENTIFIER"

// identifierRe matches `PRODUCT_BUNDLE_IDENTIFIER = value;` with optional
// quoting. Group 2 is the value.
var identifierRe = regexp.MustCompile(`PRODUCT_BUNDLE_IDENTIFIER\s*=\s*("?)([^";\n]*)("?)\s*;`)

// productNameRe extracts the PRODUCT_NAME setting from a block, used by the
// pods variant to derive a per-target suffix.
var productNameRe = regexp.MustCompile(`PRODUCT_NAME\s*=\s*"?([^";\n]*)"?\s*;`)

// ConfigBlock is one build-configuration block: the smallest brace-balanced
// region containing an identifier assignment.
type ConfigBlock struct {
	// Span of the enclosing braced region in the source bytes.
	Start, End int

	// Span of the identifier value inside the source bytes.
	valStart, valEnd int

	// Identifier is the original value; NewIdentifier is the assigned
	// replacement (empty means leave unchanged).
	Identifier    string
	NewIdentifier string
}

// Text returns the block's source text.
func (b *ConfigBlock) Text(doc *Document) string {
	return string(doc.raw[b.Start:b.End])
}

// ProductName returns the block's PRODUCT_NAME setting, or "".
func (b *ConfigBlock) ProductName(doc *Document) string {
	m := productNameRe.FindSubmatch(doc.raw[b.Start:b.End])
	if m == nil {
		return ""
	}
	return string(m[1])
}

// Document is a parsed project descriptor.
type Document struct {
	raw    []byte
	Blocks []*ConfigBlock
}

// Parse extracts every configuration block from a project descriptor.
// Files with no identifier assignments parse to an empty document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{raw: data}

	for _, loc := range identifierRe.FindAllSubmatchIndex(data, -1) {
		keyStart := loc[0]
		valStart, valEnd := loc[4], loc[5]

		start, end, err := enclosingBraces(data, keyStart)
		if err != nil {
			return nil, fmt.Errorf("identifier at offset %d: %w", keyStart, err)
		}

		doc.Blocks = append(doc.Blocks, &ConfigBlock{
			Start:      start,
			End:        end,
			valStart:   valStart,
			valEnd:     valEnd,
			Identifier: string(data[valStart:valEnd]),
		})
	}

	return doc, nil
}

// enclosingBraces locates the smallest {...} region containing pos.
// Returns the span including both braces.
func enclosingBraces(data []byte, pos int) (int, int, error) {
	// Walk backwards for the opening brace, skipping balanced pairs.
	depth := 0
	open := -1
	for i := pos - 1; i >= 0; i-- {
		switch data[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
		if open >= 0 {
			break
		}
	}
	if open < 0 {
		return 0, 0, fmt.Errorf("no enclosing block found")
	}

	// Walk forward for the matching close.
	depth = 0
	for i := open; i < len(data); i++ {
		switch data[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open, i + 1, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("unbalanced block starting at offset %d", open)
}

// Serialize reassembles the descriptor, substituting assigned identifiers
// in place. Content outside identifier values is byte-identical to the
// parsed input.
func (doc *Document) Serialize() []byte {
	var out bytes.Buffer
	out.Grow(len(doc.raw))

	prev := 0
	for _, b := range doc.Blocks {
		if b.NewIdentifier == "" || b.NewIdentifier == b.Identifier {
			continue
		}
		out.Write(doc.raw[prev:b.valStart])
		out.WriteString(b.NewIdentifier)
		prev = b.valEnd
	}
	out.Write(doc.raw[prev:])
	return out.Bytes()
}

// Changed reports whether serialization would differ from the input.
func (doc *Document) Changed() bool {
	for _, b := range doc.Blocks {
		if b.NewIdentifier != "" && b.NewIdentifier != b.Identifier {
			return true
		}
	}
	return false
}

// HasIdentifierKey reports whether data contains any identifier assignment,
// without a full parse.
func HasIdentifierKey(data []byte) bool {
	return bytes.Contains(data, []byte(identifierKey))
}
