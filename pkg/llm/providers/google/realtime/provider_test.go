package realtime

import (
	"context"
	"testing"

	"github.com/altio-ai/cheeko/pkg/llm"
)

func TestConnectRequiresAPIKey(t *testing.T) {
	p := New()
	err := p.Connect(context.Background(), llm.RealtimeConfig{Model: "models/test"})
	if err == nil {
		t.Fatal("Expected error when API key is missing")
	}
}

func TestNotConnectedErrors(t *testing.T) {
	p := New()
	if p.IsConnected() {
		t.Error("New provider should not report connected")
	}
	if err := p.SendAudio(context.Background(), []byte{0, 0}); err == nil {
		t.Error("SendAudio should fail when not connected")
	}
	if err := p.SendText(context.Background(), "hello"); err == nil {
		t.Error("SendText should fail when not connected")
	}
	if err := p.SendToolResponse(context.Background(), llm.ToolResponse{}); err == nil {
		t.Error("SendToolResponse should fail when not connected")
	}
}

func TestConvertToSchema(t *testing.T) {
	params := map[string]interface{}{
		"type":        "object",
		"description": "email fetch args",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "max results",
			},
		},
		"required": []interface{}{"limit"},
	}

	schema := convertToSchema(params)
	if schema == nil {
		t.Fatal("Expected schema, got nil")
	}
	if string(schema.Type) != "OBJECT" {
		t.Errorf("Expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 1 {
		t.Fatalf("Expected 1 property, got %d", len(schema.Properties))
	}
	if string(schema.Properties["limit"].Type) != "INTEGER" {
		t.Errorf("Expected INTEGER property type, got %s", schema.Properties["limit"].Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "limit" {
		t.Errorf("Expected required [limit], got %v", schema.Required)
	}
}

func TestConvertToSchemaFromJSON(t *testing.T) {
	schema := convertToSchema(`{"type":"object","properties":{}}`)
	if schema == nil {
		t.Fatal("Expected schema from JSON string, got nil")
	}
	if string(schema.Type) != "OBJECT" {
		t.Errorf("Expected OBJECT type, got %s", schema.Type)
	}
}

func TestConvertToSchemaNil(t *testing.T) {
	if convertToSchema(nil) != nil {
		t.Error("Expected nil schema for nil params")
	}
	if convertToSchema(42) != nil {
		t.Error("Expected nil schema for unsupported params type")
	}
}
