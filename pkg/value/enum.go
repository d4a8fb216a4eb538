package value

// EnumClass describes an enumeration whose members can be rebuilt from
// their underlying values.
type EnumClass struct {
	Module  string
	Name    string
	Members []EnumMember
}

// ByValue returns the member whose underlying value equals v.
func (c *EnumClass) ByValue(v *Value) (EnumMember, bool) {
	for _, m := range c.Members {
		if Equal(m.Value, v) {
			return m, true
		}
	}
	return EnumMember{}, false
}

// Member returns the member value with the given name, or nil.
func (c *EnumClass) Member(name string) *Value {
	for _, m := range c.Members {
		if m.Name == name {
			return Enum(c.Module, c.Name, m.Name, m.Value)
		}
	}
	return nil
}

// EnumLookup locates enumeration classes by namespace and class name.
type EnumLookup interface {
	LookupEnum(module, class string) (*EnumClass, bool)
}

// Enums is a map-backed [EnumLookup] keyed by "module.class".
type Enums map[string]*EnumClass

// Register adds c and returns the receiver so calls chain.
func (e Enums) Register(c *EnumClass) Enums {
	e[c.Module+"."+c.Name] = c
	return e
}

// LookupEnum implements [EnumLookup].
func (e Enums) LookupEnum(module, class string) (*EnumClass, bool) {
	c, ok := e[module+"."+class]
	return c, ok
}

// NewEnumClass builds a class from its members in declaration order. The
// members' Module and Class fields are filled in.
func NewEnumClass(module, name string, members ...EnumMember) *EnumClass {
	c := &EnumClass{Module: module, Name: name}
	for _, m := range members {
		m.Module, m.Class = module, name
		c.Members = append(c.Members, m)
	}
	return c
}
