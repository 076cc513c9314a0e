package feeimport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// PreviewVersion tags the serialized record set so older payloads can be
// rejected after a format change.
const PreviewVersion = 1

type previewEnvelope struct {
	Version    int               `json:"v"`
	ImportType ImportType        `json:"import_type"`
	Records    []json.RawMessage `json:"records"`
}

// EncodePreview serializes records, in order, into URL-safe text for the
// confirmation form. It never touches the store.
func EncodePreview(t ImportType, records []Record) (string, error) {
	env := previewEnvelope{Version: PreviewVersion, ImportType: t, Records: make([]json.RawMessage, 0, len(records))}
	for i, r := range records {
		if r.ImportType() != t {
			return "", fmt.Errorf("record %d is a %s record, preview is %s", i+1, r.ImportType(), t)
		}
		b, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encode record %d: %w", i+1, err)
		}
		env.Records = append(env.Records, b)
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodePreview reverses EncodePreview. Any decoding problem, an import type
// other than want, an empty set or a record breaking the record rules is a
// MalformedPayload error.
func DecodePreview(data string, want ImportType) ([]Record, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(data), "="))
	if err != nil {
		return nil, newError(KindMalformedPayload, "preview data is not valid base64url", err)
	}

	var env previewEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, newError(KindMalformedPayload, "preview data is not valid JSON", err)
	}
	if env.Version != PreviewVersion {
		return nil, newError(KindMalformedPayload, fmt.Sprintf("preview format version %d is not supported", env.Version), nil)
	}
	if env.ImportType != want {
		return nil, newError(KindMalformedPayload, fmt.Sprintf("preview holds %q records but %q was requested", env.ImportType, want), nil)
	}
	if len(env.Records) == 0 {
		return nil, newError(KindMalformedPayload, "preview holds no records", nil)
	}

	out := make([]Record, 0, len(env.Records))
	for i, msg := range env.Records {
		rec, err := decodeRecord(want, msg)
		if err != nil {
			return nil, newError(KindMalformedPayload, fmt.Sprintf("record %d", i+1), err)
		}
		if err := rec.check(); err != nil {
			return nil, newError(KindMalformedPayload, fmt.Sprintf("record %d", i+1), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(t ImportType, msg json.RawMessage) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	switch t {
	case ImportBusiness:
		var r BusinessFeeRecord
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}
		r.FeeAmount = r.FeeAmount.Round(2)
		return r, nil
	case ImportProperty:
		var r PropertyFeeRecord
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}
		r.FeePerRoom = r.FeePerRoom.Round(2)
		return r, nil
	}
	return nil, fmt.Errorf("unsupported import type %q", t)
}
