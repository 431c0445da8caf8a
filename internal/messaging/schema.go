package messaging

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator checks payloads against the embedded per-topic schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the schema of every known topic.
func NewValidator() (*Validator, error) {
	topics := append(InboundTopics(), TopicDMonitoringState)
	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(topics))}
	compiler := jsonschema.NewCompiler()
	for _, topic := range topics {
		name := path.Join("schemas", topic+".json")
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		url := "mem://drivermon/" + name
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[topic] = schema
	}
	return v, nil
}

// Validate checks raw against the schema registered for topic.
func (v *Validator) Validate(topic string, raw []byte) error {
	schema, ok := v.schemas[topic]
	if !ok {
		return fmt.Errorf("no schema for topic %q", topic)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}
