package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
)

// marshalWorkspace converts a workspace to JSON TEXT and its digest.
// Property payloads inside it are already canonical, and encoding/json
// sorts map keys, so equal workspaces produce equal text.
func marshalWorkspace(ws *ir.Workspace) (body, digest string, err error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return "", "", fmt.Errorf("marshal workspace: %w", err)
	}
	digest, err = ir.Digest(ws)
	if err != nil {
		return "", "", err
	}
	return string(data), digest, nil
}

// unmarshalWorkspace parses snapshot TEXT and checks it against the stored
// digest.
func unmarshalWorkspace(body, digest string) (*ir.Workspace, error) {
	ws, err := ir.DecodeWorkspace([]byte(body))
	if err != nil {
		return nil, err
	}
	got, err := ir.Digest(ws)
	if err != nil {
		return nil, err
	}
	if got != digest {
		return nil, fmt.Errorf("snapshot v%d: digest mismatch: stored %s, computed %s", ws.Version, digest, got)
	}
	return ws, nil
}

// marshalEnvelope converts a mutation envelope to JSON TEXT.
func marshalEnvelope(env engine.Envelope) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return "", fmt.Errorf("marshal mutation: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalEnvelope parses mutation TEXT. Numbers stay json.Number so
// integer payloads survive the round trip.
func unmarshalEnvelope(data string) (engine.Envelope, error) {
	var env engine.Envelope
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return engine.Envelope{}, fmt.Errorf("unmarshal mutation: %w", err)
	}
	return env, nil
}
