package hdrext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MarshalJSON serializes the extension as compact JSON with a fixed key
// order: SpectrometerFrequency and ResonantNucleus first (each a
// one-element array), then any assigned dim_5..dim_7 tags, then every other
// key in insertion order. User keys serialize as an object holding the
// value and its documentation string.
func (e *Ext) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	freq, err := json.Marshal(e.freq)
	if err != nil {
		return nil, err
	}
	nuc, err := json.Marshal(e.nucleus)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `"SpectrometerFrequency":[%s],"ResonantNucleus":[%s]`, freq, nuc)

	for i, tag := range e.dims {
		if tag == "" {
			continue
		}
		t, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,"dim_%d":%s`, dimKeyBase+i, t)
	}

	for _, en := range e.entries {
		k, err := json.Marshal(en.key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		if en.user {
			doc, err := json.Marshal(en.doc)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, `{"Value":%s,"Description":%s}`, en.raw, doc)
		} else {
			buf.Write(en.raw)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse reconstructs an extension from its serialized form, preserving key
// order and value bytes so that re-serializing the result reproduces the
// input exactly.
func Parse(data []byte) (*Ext, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing header extension: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parsing header extension: expected object, got %v", tok)
	}

	e := &Ext{index: make(map[string]int)}
	seenFreq, seenNuc := false, false

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing header extension: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing header extension: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing header extension key %q: %w", key, err)
		}
		compact, err := compactRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing header extension key %q: %w", key, err)
		}

		switch {
		case key == "SpectrometerFrequency":
			var v []float64
			if err := json.Unmarshal(compact, &v); err != nil || len(v) != 1 {
				return nil, fmt.Errorf("parsing header extension: SpectrometerFrequency must be a one-element array")
			}
			e.freq = v[0]
			seenFreq = true
		case key == "ResonantNucleus":
			var v []string
			if err := json.Unmarshal(compact, &v); err != nil || len(v) != 1 {
				return nil, fmt.Errorf("parsing header extension: ResonantNucleus must be a one-element array")
			}
			e.nucleus = v[0]
			seenNuc = true
		case isDimKey(key):
			var tag string
			if err := json.Unmarshal(compact, &tag); err != nil {
				return nil, fmt.Errorf("parsing header extension key %q: %w", key, err)
			}
			n, _ := strconv.Atoi(strings.TrimPrefix(key, "dim_"))
			e.dims[n-dimKeyBase] = tag
		default:
			e.put(entry{key: key, raw: compact})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing header extension: %w", err)
	}
	if !seenFreq || !seenNuc {
		return nil, fmt.Errorf("parsing header extension: SpectrometerFrequency and ResonantNucleus are required")
	}
	return e, nil
}

// Equal reports whether two extensions serialize identically: same keys,
// same values, same order.
func (e *Ext) Equal(other *Ext) bool {
	a, err := e.MarshalJSON()
	if err != nil {
		return false
	}
	b, err := other.MarshalJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func isDimKey(key string) bool {
	if !strings.HasPrefix(key, "dim_") {
		return false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, "dim_"))
	return err == nil && n >= dimKeyBase && n < dimKeyBase+maxDims
}

func compactRaw(raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
