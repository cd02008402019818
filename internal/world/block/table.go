package block

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Visibility classifies how a block occludes its neighbours. Mesh builders
// and emptiness checks branch on this.
type Visibility string

const (
	VisibilityEmpty       Visibility = "EMPTY"
	VisibilityOpaque      Visibility = "OPAQUE"
	VisibilityTransparent Visibility = "TRANSPARENT"

	// VisibilityUnknown is returned for identifiers missing from the table.
	// Out-of-date content data is a realistic condition, so lookups degrade
	// to this sentinel instead of failing.
	VisibilityUnknown Visibility = "UNKNOWN"
)

type Def struct {
	ID                 string     `json:"id"`
	Visibility         Visibility `json:"visibility"`
	HasDirection       bool       `json:"has_direction,omitempty"`
	ExclusiveDirection bool       `json:"exclusive_direction,omitempty"`
}

// Table is the registry mapping block identifiers to their metadata.
type Table struct {
	Defs   map[string]Def
	Digest string
}

type registryFile struct {
	Blocks []Def `json:"blocks"`
}

// LoadTable reads a block registry JSON file and validates it against the
// given schema before accepting it.
func LoadTable(configPath, schemaPath string) (*Table, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", schemaPath, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	var reg registryFile
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	t := &Table{Defs: make(map[string]Def, len(reg.Blocks))}
	for _, def := range reg.Blocks {
		if _, _, ok := ParseIdentifier(def.ID); !ok {
			return nil, fmt.Errorf("blocks.json: bad identifier %q", def.ID)
		}
		if _, dup := t.Defs[def.ID]; dup {
			return nil, fmt.Errorf("blocks.json: duplicate identifier %q", def.ID)
		}
		t.Defs[def.ID] = def
	}
	t.Digest = digestDefs(t.Defs)
	return t, nil
}

// NewTable builds a table directly from definitions. Mostly for tests and
// embedded defaults.
func NewTable(defs []Def) *Table {
	t := &Table{Defs: make(map[string]Def, len(defs))}
	for _, def := range defs {
		t.Defs[def.ID] = def
	}
	t.Digest = digestDefs(t.Defs)
	return t
}

// Visibility returns the visibility class for an identifier, or
// VisibilityUnknown when the identifier is not registered.
func (t *Table) Visibility(identifier string) Visibility {
	def, ok := t.Defs[identifier]
	if !ok {
		return VisibilityUnknown
	}
	return def.Visibility
}

// Lookup returns the full definition and whether it exists.
func (t *Table) Lookup(identifier string) (Def, bool) {
	def, ok := t.Defs[identifier]
	return def, ok
}

// Identifiers returns all registered identifiers, sorted.
func (t *Table) Identifiers() []string {
	ids := make([]string, 0, len(t.Defs))
	for id := range t.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func digestDefs(defs map[string]Def) string {
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		_ = enc.Encode(defs[id])
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
