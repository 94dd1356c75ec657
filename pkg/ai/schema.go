package ai

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed grading.schema.json
var gradingSchemaJSON []byte

const gradingSchemaURL = "gradx://schemas/grading.schema.json"

var (
	gradingSchemaOnce sync.Once
	gradingSchema     *jsonschema.Schema
	gradingSchemaErr  error
)

func compiledGradingSchema() (*jsonschema.Schema, error) {
	gradingSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(gradingSchemaURL, bytes.NewReader(gradingSchemaJSON)); err != nil {
			gradingSchemaErr = fmt.Errorf("load grading schema: %w", err)
			return
		}
		gradingSchema, gradingSchemaErr = compiler.Compile(gradingSchemaURL)
	})
	return gradingSchema, gradingSchemaErr
}

// GradingSchema returns the raw JSON Schema grading responses must satisfy.
func GradingSchema() string {
	return string(gradingSchemaJSON)
}

// StripCodeFences removes a markdown code fence wrapped around a model reply.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseGradeResponse validates a raw grading reply against the schema and maps it.
func ParseGradeResponse(raw string) (GradeResult, error) {
	content := StripCodeFences(raw)
	if content == "" {
		return GradeResult{}, fmt.Errorf("%w: empty grading reply", ErrUnusableResponse)
	}

	schema, err := compiledGradingSchema()
	if err != nil {
		return GradeResult{}, err
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return GradeResult{}, fmt.Errorf("%w: grading reply is not json: %v", ErrUnusableResponse, err)
	}
	if err := schema.Validate(document); err != nil {
		return GradeResult{}, fmt.Errorf("%w: grading reply violates schema: %v", ErrUnusableResponse, err)
	}

	var result GradeResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return GradeResult{}, fmt.Errorf("%w: decode grading reply: %v", ErrUnusableResponse, err)
	}
	if result.Breakdown == nil {
		result.Breakdown = []QuestionScore{}
	}
	return result, nil
}
