// Package fieldrules turns the admin-managed field configurations into a JSON
// schema and checks initiative records against it.
package fieldrules

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"initiativehub/models"
)

const schemaURL = "urn:initiativehub:field-requirements.json"

// initiativeFields are the JSON names a field configuration may require.
var initiativeFields = map[string]bool{
	"title": true, "description": true, "status": true, "priority": true,
	"team": true, "owner": true, "executive_sponsor": true, "start_date": true,
	"target_date": true, "progress": true, "budget": true, "tags": true, "notes": true,
}

// blankValues are the encoded values that count as unset. Progress and budget
// are never null, so their zero value is blank.
var blankValues = map[string][]interface{}{
	"progress": {nil, 0},
	"budget":   {nil, "", "0"},
}

var defaultBlank = []interface{}{nil, "", []interface{}{}}

// KnownField reports whether name can be required on an initiative.
func KnownField(name string) bool {
	return initiativeFields[name]
}

// MissingFieldsError lists the required fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Rules is a compiled set of field requirements.
type Rules struct {
	required []string
	schema   *jsonschema.Schema
}

// Compile builds the schema for entity from its field configurations. Fields
// that are not required, or unknown to the entity, are ignored.
func Compile(entity string, fields []models.FieldConfiguration) (*Rules, error) {
	required := []string{}
	for _, f := range fields {
		if f.Entity != entity || !f.Required || !KnownField(f.FieldName) {
			continue
		}
		required = append(required, f.FieldName)
	}
	sort.Strings(required)

	properties := make(map[string]interface{}, len(required))
	for _, name := range required {
		blank, ok := blankValues[name]
		if !ok {
			blank = defaultBlank
		}
		properties[name] = map[string]interface{}{
			"not": map[string]interface{}{"enum": blank},
		}
	}
	doc := map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"required":   required,
		"properties": properties,
	}

	schemaDoc, err := roundTrip(doc)
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add field schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile field schema: %w", err)
	}
	return &Rules{required: required, schema: schema}, nil
}

// Required returns the required field names in sorted order.
func (r *Rules) Required() []string {
	return r.required
}

// Validate checks record, which is encoded to JSON first. It returns a
// *MissingFieldsError when required fields are empty.
func (r *Rules) Validate(record interface{}) error {
	if len(r.required) == 0 {
		return nil
	}

	instance, err := roundTrip(record)
	if err != nil {
		return err
	}

	err = r.schema.Validate(instance)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validate fields: %w", err)
	}

	missing := map[string]bool{}
	collectFields(verr, missing)
	for _, name := range r.required {
		if obj, ok := instance.(map[string]interface{}); ok {
			if _, present := obj[name]; !present {
				missing[name] = true
			}
		}
	}

	fields := make([]string, 0, len(missing))
	for name := range missing {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return &MissingFieldsError{Fields: fields}
}

func collectFields(verr *jsonschema.ValidationError, into map[string]bool) {
	if len(verr.InstanceLocation) > 0 {
		into[verr.InstanceLocation[0]] = true
	}
	for _, cause := range verr.Causes {
		collectFields(cause, into)
	}
}

// roundTrip converts v into the generic form the schema library validates.
func roundTrip(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for schema: %w", err)
	}
	return doc, nil
}
