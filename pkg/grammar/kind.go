package grammar

// ActionKind is the closed set of argument behaviours.
type ActionKind string

// Action kinds. The string values are the wire names.
const (
	KindStore           ActionKind = "store"
	KindStoreConst      ActionKind = "store_const"
	KindStoreTrue       ActionKind = "store_true"
	KindStoreFalse      ActionKind = "store_false"
	KindAppend          ActionKind = "append"
	KindAppendConst     ActionKind = "append_const"
	KindCount           ActionKind = "count"
	KindHelp            ActionKind = "help"
	KindVersion         ActionKind = "version"
	KindParsers         ActionKind = "parsers"
	KindExtend          ActionKind = "extend"
	KindBooleanOptional ActionKind = "boolean_optional"
	KindUnknown         ActionKind = "unknown"
)

var allKinds = []ActionKind{
	KindStore, KindStoreConst, KindStoreTrue, KindStoreFalse,
	KindAppend, KindAppendConst, KindCount, KindHelp, KindVersion,
	KindParsers, KindExtend, KindBooleanOptional, KindUnknown,
}

// ParseKind maps a wire name to its kind. Unrecognized names map to
// KindUnknown.
func ParseKind(s string) ActionKind {
	for _, k := range allKinds {
		if string(k) == s {
			return k
		}
	}
	return KindUnknown
}

// Kinds returns every action kind in declaration order.
func Kinds() []ActionKind {
	return append([]ActionKind(nil), allKinds...)
}

func (k ActionKind) String() string { return string(k) }

// kindRule lists the fields a kind accepts.
type kindRule struct {
	nargs, typ, choices, konst bool
}

var kindRules = map[ActionKind]kindRule{
	KindStore:           {nargs: true, typ: true, choices: true, konst: true},
	KindStoreConst:      {konst: true, choices: true},
	KindStoreTrue:       {},
	KindStoreFalse:      {},
	KindAppend:          {nargs: true, typ: true, choices: true, konst: true},
	KindAppendConst:     {konst: true, choices: true},
	KindCount:           {},
	KindHelp:            {},
	KindVersion:         {},
	KindParsers:         {},
	KindExtend:          {nargs: true, typ: true, choices: true, konst: true},
	KindBooleanOptional: {typ: true, choices: true},
	KindUnknown:         {nargs: true, typ: true, choices: true, konst: true},
}

func (k ActionKind) rule() kindRule {
	if r, ok := kindRules[k]; ok {
		return r
	}
	return kindRules[KindUnknown]
}

// AcceptsNargs reports whether actions of kind k may carry nargs.
func (k ActionKind) AcceptsNargs() bool { return k.rule().nargs }

// AcceptsType reports whether actions of kind k may carry a converter.
func (k ActionKind) AcceptsType() bool { return k.rule().typ }

// AcceptsChoices reports whether actions of kind k may restrict choices.
func (k ActionKind) AcceptsChoices() bool { return k.rule().choices }

// AcceptsConst reports whether actions of kind k may carry a const.
func (k ActionKind) AcceptsConst() bool { return k.rule().konst }

// TakesValue reports whether the action consumes command-line values.
func (k ActionKind) TakesValue() bool { return k.rule().nargs || k == KindBooleanOptional }

// Classifier maps implementation class names to action kinds.
//
// Exact matches come from a static table. A class that is not in the table
// is classified by its nearest known ancestor, taken first from the lineage
// passed to [Classifier.Classify] and then from the bases registered with
// [Classifier.RegisterBase]; the concrete class name is recorded as custom.
type Classifier struct {
	classes map[string]ActionKind
	bases   map[string][]string
}

// NewClassifier returns a classifier that knows the standard action class
// names and the wire names of every kind.
func NewClassifier() *Classifier {
	c := &Classifier{
		classes: make(map[string]ActionKind),
		bases:   make(map[string][]string),
	}
	for class, kind := range map[string]ActionKind{
		"_StoreAction":          KindStore,
		"_StoreConstAction":     KindStoreConst,
		"_StoreTrueAction":      KindStoreTrue,
		"_StoreFalseAction":     KindStoreFalse,
		"_AppendAction":         KindAppend,
		"_AppendConstAction":    KindAppendConst,
		"_CountAction":          KindCount,
		"_HelpAction":           KindHelp,
		"_VersionAction":        KindVersion,
		"_SubParsersAction":     KindParsers,
		"_ExtendAction":         KindExtend,
		"BooleanOptionalAction": KindBooleanOptional,
	} {
		c.Register(class, kind)
	}
	for _, k := range allKinds {
		if k != KindUnknown {
			c.Register(string(k), k)
		}
	}
	return c
}

// Register records the kind for an exact class name.
func (c *Classifier) Register(class string, kind ActionKind) *Classifier {
	c.classes[class] = kind
	return c
}

// RegisterBase records the direct bases of class, nearest first.
func (c *Classifier) RegisterBase(class string, bases ...string) *Classifier {
	c.bases[class] = append(c.bases[class], bases...)
	return c
}

// Classify returns the kind of class and, when the kind was inherited, the
// concrete class name to record as custom. lineage lists ancestors of
// class, nearest first.
func (c *Classifier) Classify(class string, lineage ...string) (ActionKind, string) {
	if k, ok := c.classes[class]; ok {
		return k, ""
	}
	seen := map[string]bool{class: true}
	queue := append([]string(nil), lineage...)
	queue = append(queue, c.bases[class]...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		if k, ok := c.classes[name]; ok {
			return k, class
		}
		queue = append(queue, c.bases[name]...)
	}
	return KindUnknown, class
}

// Known reports whether class has an exact entry.
func (c *Classifier) Known(class string) bool {
	_, ok := c.classes[class]
	return ok
}
