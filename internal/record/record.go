// Package record reads and validates the per-source-file result records
// that feed the aggregation.
package record

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/featstat/pkg/features"
)

// Record errors. Both mean the file is skipped, never that the run fails.
var (
	ErrInvalidRecord = errors.New("invalid result record")
	ErrFileTooLarge  = errors.New("result file too large")
)

// UnitKind is the rca kind of the record that spans a whole source file.
const UnitKind = "unit"

const compressedSuffix = ".lz4"

// maxReportedViolations caps how many schema violations an error lists.
const maxReportedViolations = 3

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Node is one per-syntax-node-kind measurement.
type Node struct {
	// Name is the node's token, classified by features.Classify.
	Name string
	// Data is the nested metrics object.
	Data gjson.Result
}

// Space is one per-code-unit measurement.
type Space struct {
	Kind string
	Span features.Span
	Data gjson.Result
}

// Unit reports whether the space covers the whole source file.
func (s Space) Unit() bool {
	return s.Kind == UnitKind
}

// File is one decoded result file.
type File struct {
	Nodes    []Node
	Spaces   []Space
	Findings []features.Finding
}

// Read loads, decompresses when the name ends in ".lz4", and decodes the
// result file at path. Files above maxSize bytes, compressed or not, fail
// with ErrFileTooLarge; maxSize 0 disables the limit.
func Read(path string, maxSize uint64) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	defer file.Close()

	var src io.Reader = file
	if strings.HasSuffix(path, compressedSuffix) {
		src = lz4.NewReader(file)
	}

	if maxSize > 0 {
		src = io.LimitReader(src, int64(maxSize)+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidRecord, path, err)
	}

	if maxSize > 0 && uint64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, path, maxSize)
	}

	return Decode(data)
}

// Decode validates data against the result-file schema and decodes it.
func Decode(data []byte) (*File, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}

	err := validate(data)
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(data)
	out := &File{}

	for _, node := range doc.Get("node").Array() {
		out.Nodes = append(out.Nodes, Node{
			Name: node.Get("name").String(),
			Data: node.Get("data"),
		})
	}

	for _, space := range doc.Get("rca").Array() {
		out.Spaces = append(out.Spaces, Space{
			Kind: space.Get("kind").String(),
			Span: spanOf(space),
			Data: space.Get("data"),
		})
	}

	for _, finding := range doc.Get("finder").Array() {
		out.Findings = append(out.Findings, features.Finding{
			Name: finding.Get("name").String(),
			Span: spanOf(finding),
		})
	}

	return out, nil
}

func spanOf(entry gjson.Result) features.Span {
	return features.Span{
		StartLine: int(entry.Get("start_line").Int()),
		EndLine:   int(entry.Get("end_line").Int()),
	}
}

func validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile result schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, maxReportedViolations)

	for i, verr := range result.Errors() {
		if i == maxReportedViolations {
			violations = append(violations, "...")

			break
		}

		violations = append(violations, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(violations, "; "))
}
