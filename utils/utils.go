package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/MBrOssss/RESTApi/core/schema"
)

// StructToDocument converts a struct into a flat schema.Document through its
// JSON form, so `json:"..."` tags name the document keys. Documents are flat:
// a field that encodes to a JSON object is an error. Numbers are kept as
// json.Number.
//
// The input must be a struct or a non-nil pointer to a struct.
//
// Example:
//
//	type Doctor struct {
//		Id   int    `json:"Id"`
//		Name string `json:"Name"`
//	}
//	doc, err := StructToDocument(Doctor{Id: 1, Name: "Anna"})
//	// doc is schema.Document{"Id": json.Number("1"), "Name": "Anna"}
func StructToDocument[T any](record T) (schema.Document, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to marshal input record to JSON: %w", err)
	}
	var doc schema.Document
	if err := unmarshalNumbers(jsonBytes, &doc); err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to unmarshal JSON to document: %w", err)
	}
	if err := checkFlat(doc); err != nil {
		return nil, fmt.Errorf("StructToDocument: %w", err)
	}
	return doc, nil
}

// DocumentToStruct is the inverse of StructToDocument. Timestamps and UUIDs in
// the document are converted through their JSON text forms.
func DocumentToStruct[T any](doc schema.Document) (T, error) {
	var zero T
	if doc == nil {
		return zero, fmt.Errorf("DocumentToStruct: input document cannot be nil")
	}
	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("DocumentToStruct: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("DocumentToStruct: failed to marshal document to JSON: %w", err)
	}
	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("DocumentToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}

// DecodeDocuments reads a JSON array of objects, or a single object, as
// documents. Numbers are kept as json.Number.
func DecodeDocuments(r io.Reader) ([]schema.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var docs []schema.Document
	if data[0] == '{' {
		var doc schema.Document
		if err := unmarshalNumbers(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = []schema.Document{doc}
	} else if err := unmarshalNumbers(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	for i, doc := range docs {
		if err := checkFlat(doc); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return docs, nil
}

// unmarshalNumbers decodes JSON keeping numbers as json.Number, so 64-bit
// integers survive until they are normalized against the schema.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

func checkFlat(doc schema.Document) error {
	for key, v := range doc {
		switch v.(type) {
		case map[string]any, []any:
			return fmt.Errorf("field '%s' is not a scalar value", key)
		}
	}
	return nil
}
