package database

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	KeyUsers    = "users"
	KeyGroups   = "groups"
	KeySettings = "settings"
)

// Record is one free-form entry of the application database.
type Record map[string]any

// Document is the whole application database. The users, groups and settings
// sections are always present; any other top-level key is kept as-is.
type Document struct {
	Users    map[string]Record
	Groups   map[string]Record
	Settings map[string]Record
	Extra    map[string]json.RawMessage
}

func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize replaces nil sections with empty ones and reports whether anything changed.
func (d *Document) Normalize() bool {
	changed := false
	if d.Users == nil {
		d.Users = map[string]Record{}
		changed = true
	}
	if d.Groups == nil {
		d.Groups = map[string]Record{}
		changed = true
	}
	if d.Settings == nil {
		d.Settings = map[string]Record{}
		changed = true
	}
	if d.Extra == nil {
		d.Extra = map[string]json.RawMessage{}
	}
	return changed
}

// Section returns one of the three known sections by name.
func (d *Document) Section(name string) (map[string]Record, error) {
	d.Normalize()
	switch name {
	case KeyUsers:
		return d.Users, nil
	case KeyGroups:
		return d.Groups, nil
	case KeySettings:
		return d.Settings, nil
	}
	return nil, fmt.Errorf("unknown database section %q", name)
}

// Clone returns a deep copy of the document. Values keep their Go types.
func (d *Document) Clone() *Document {
	out := &Document{
		Users:    cloneSection(d.Users),
		Groups:   cloneSection(d.Groups),
		Settings: cloneSection(d.Settings),
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	out.Normalize()
	return out
}

func cloneSection(section map[string]Record) map[string]Record {
	if section == nil {
		return nil
	}
	out := make(map[string]Record, len(section))
	for k, rec := range section {
		out[k] = cloneValue(rec).(Record)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Record:
		if v == nil {
			return Record(nil)
		}
		out := make(Record, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case json.RawMessage:
		return append(json.RawMessage(nil), v...)
	default:
		return v
	}
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	users, groups, settings := d.Users, d.Groups, d.Settings
	if users == nil {
		users = map[string]Record{}
	}
	if groups == nil {
		groups = map[string]Record{}
	}
	if settings == nil {
		settings = map[string]Record{}
	}
	out[KeyUsers] = users
	out[KeyGroups] = groups
	out[KeySettings] = settings
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Document{Extra: map[string]json.RawMessage{}}
	for k, v := range raw {
		var target *map[string]Record
		switch k {
		case KeyUsers:
			target = &d.Users
		case KeyGroups:
			target = &d.Groups
		case KeySettings:
			target = &d.Settings
		default:
			d.Extra[k] = v
			continue
		}
		if err := json.Unmarshal(v, target); err != nil {
			return fmt.Errorf("database section %q: %w", k, err)
		}
	}
	d.Normalize()
	return nil
}

// IDocumentRepository stores the serialized document. Read returns nil data
// and no error when nothing has been stored yet.
type IDocumentRepository interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

type IState interface {
	Load(ctx context.Context) error
	// View hands fn a private copy; changes to it are discarded.
	View(fn func(doc *Document))
	Update(fn func(doc *Document) error) error
	Flush(ctx context.Context) error
	Close() error
}
