package block

import "strings"

// Direction a block may face. The zero value means the block has no
// orientation.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionNorth Direction = "north"
	DirectionWest  Direction = "west"
	DirectionEast  Direction = "east"
	DirectionSouth Direction = "south"
)

// GrowthState for crop-like blocks. The zero value means not growable.
type GrowthState string

const (
	GrowthNone    GrowthState = ""
	GrowthPlanted GrowthState = "planted"
	GrowthSapling GrowthState = "sapling"
	GrowthYoung   GrowthState = "young"
	GrowthRipe    GrowthState = "ripe"
	GrowthSpoiled GrowthState = "spoiled"
)

// Container holds the inventory of container blocks (chests etc).
type Container struct {
	Items   []string `json:"items"`
	MaxSize uint8    `json:"max_size"`
}

func (c *Container) equal(o *Container) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.MaxSize != o.MaxSize || len(c.Items) != len(o.Items) {
		return false
	}
	for i := range c.Items {
		if c.Items[i] != o.Items[i] {
			return false
		}
	}
	return true
}

// Data is the value stored in one voxel. It is an opaque value type: two
// Data are interchangeable iff every field matches. Copies are independent
// except for the Container pointer, which Clone deep-copies.
type Data struct {
	Namespace string      `json:"namespace"`
	Name      string      `json:"name"`
	Direction Direction   `json:"direction,omitempty"`
	Container *Container  `json:"container,omitempty"`
	Growth    GrowthState `json:"growth,omitempty"`
	LastTick  uint64      `json:"last_tick,omitempty"`
	Arbitrary string      `json:"arbitrary,omitempty"`
	Top       bool        `json:"top,omitempty"`
}

const (
	DefaultNamespace = "vinox"
	airName          = "air"
)

// Air is the default block filling freshly constructed storage.
func Air() Data {
	return Data{Namespace: DefaultNamespace, Name: airName}
}

func New(namespace, name string) Data {
	return Data{Namespace: namespace, Name: name}
}

// Equal compares every field. Palette deduplication depends on this being a
// full-value comparison, not an identifier-only one.
func (d Data) Equal(o Data) bool {
	return d.Namespace == o.Namespace &&
		d.Name == o.Name &&
		d.Direction == o.Direction &&
		d.Growth == o.Growth &&
		d.LastTick == o.LastTick &&
		d.Arbitrary == o.Arbitrary &&
		d.Top == o.Top &&
		d.Container.equal(o.Container)
}

func (d Data) Clone() Data {
	c := d
	if d.Container != nil {
		items := make([]string, len(d.Container.Items))
		copy(items, d.Container.Items)
		c.Container = &Container{Items: items, MaxSize: d.Container.MaxSize}
	}
	return c
}

// Identifier is "namespace:name", the key into the block table.
func (d Data) Identifier() string {
	return d.Namespace + ":" + d.Name
}

// ParseIdentifier splits "namespace:name". ok is false when the separator
// is missing.
func ParseIdentifier(identifier string) (namespace, name string, ok bool) {
	namespace, name, ok = strings.Cut(identifier, ":")
	if !ok || namespace == "" || name == "" {
		return "", "", false
	}
	return namespace, name, true
}

// IsEmpty reports whether this block's registered visibility class is EMPTY.
// Unknown identifiers are never empty; see Table.Visibility.
func (d Data) IsEmpty(t *Table) bool {
	return t.Visibility(d.Identifier()) == VisibilityEmpty
}
