// Package eventconfig owns the JSON document holding the log channel and the
// list of loggable event types. Every mutation is written through to disk.
package eventconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
)

const (
	keyLogChannel = "logChannelId"
	keyEventTypes = "eventTypes"
)

var (
	ErrAlreadyExists = errors.New("event type already exists")
	errNotObject     = errors.New("event config is not a JSON object")
)

// Document is the part of the file this package owns.
type Document struct {
	LogChannelID string   `json:"logChannelId"`
	EventTypes   []string `json:"eventTypes"`
}

// Store keeps any other top-level keys verbatim and in file order, so a
// rewrite only ever changes the channel and the event types.
type Store struct {
	path  string
	mu    sync.RWMutex
	doc   Document
	keys  []string
	extra map[string]json.RawMessage
}

// Load reads the whole document. A missing or malformed file is an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event config: %w", err)
	}
	store := &Store{path: path}
	if err := store.decode(data); err != nil {
		return nil, fmt.Errorf("parse event config %s: %w", path, err)
	}
	return store, nil
}

func (s *Store) decode(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}
	keys, err := topLevelKeys(data)
	if err != nil {
		return err
	}

	var doc Document
	if raw, ok := fields[keyLogChannel]; ok {
		var channelID *string
		if err := json.Unmarshal(raw, &channelID); err != nil {
			return fmt.Errorf("%s: %w", keyLogChannel, err)
		}
		if channelID != nil {
			doc.LogChannelID = *channelID
		}
	}
	if raw, ok := fields[keyEventTypes]; ok {
		if err := json.Unmarshal(raw, &doc.EventTypes); err != nil {
			return fmt.Errorf("%s: %w", keyEventTypes, err)
		}
	}
	if doc.EventTypes == nil {
		doc.EventTypes = []string{}
	}
	delete(fields, keyLogChannel)
	delete(fields, keyEventTypes)

	for _, key := range []string{keyLogChannel, keyEventTypes} {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	s.doc = doc
	s.keys = keys
	s.extra = fields
	return nil
}

// topLevelKeys lists the object's keys in the order they appear.
func topLevelKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) LogChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.LogChannelID
}

// EventTypes returns a copy in configured order.
func (s *Store) EventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.EventTypes)
}

func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Document{LogChannelID: s.doc.LogChannelID, EventTypes: slices.Clone(s.doc.EventTypes)}
}

func (s *Store) SetLogChannel(channelID string) error {
	return s.mutate(func(doc *Document) error {
		doc.LogChannelID = channelID
		return nil
	})
}

// AddEventType appends name, or returns ErrAlreadyExists leaving the list untouched.
func (s *Store) AddEventType(name string) error {
	return s.mutate(func(doc *Document) error {
		if slices.Contains(doc.EventTypes, name) {
			return ErrAlreadyExists
		}
		doc.EventTypes = append(doc.EventTypes, name)
		return nil
	})
}

// RemoveEventType filters name out. Absent names are not an error; the file is
// rewritten either way.
func (s *Store) RemoveEventType(name string) error {
	return s.mutate(func(doc *Document) error {
		doc.EventTypes = slices.DeleteFunc(doc.EventTypes, func(t string) bool { return t == name })
		return nil
	})
}

// mutate applies fn to a copy, persists it, and only then swaps it in, so a
// failed write leaves memory matching disk.
func (s *Store) mutate(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Document{LogChannelID: s.doc.LogChannelID, EventTypes: slices.Clone(s.doc.EventTypes)}
	if next.EventTypes == nil {
		next.EventTypes = []string{}
	}
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) save(doc Document) error {
	data, err := s.encode(doc)
	if err != nil {
		return fmt.Errorf("marshal event config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write event config: %w", err)
	}
	return nil
}

// encode writes the keys in file order with two-space indentation. An unset
// channel is written as null and strings are not HTML-escaped.
func (s *Store) encode(doc Document) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := writeValue(&compact, key); err != nil {
			return nil, err
		}
		compact.WriteByte(':')

		var err error
		switch key {
		case keyLogChannel:
			var channelID *string
			if doc.LogChannelID != "" {
				channelID = &doc.LogChannelID
			}
			err = writeValue(&compact, channelID)
		case keyEventTypes:
			err = writeValue(&compact, doc.EventTypes)
		default:
			err = json.Compact(&compact, s.extra[key])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
