package address

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic message. Higher is worse.
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Message is a diagnostic attached to one level of an address.
type Message struct {
	Level    Level    `json:"level"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Component is the data stored for one level.
type Component struct {
	Name     string
	Type     string
	GUID     string
	RecordID int64
}

// IsZero reports whether no data is set.
func (c Component) IsZero() bool {
	return c == Component{}
}

// Codes are the classifier reference codes of the deepest resolved object.
type Codes struct {
	RegionCode string `json:"region_code,omitempty" yaml:"region_code" bson:"region_code,omitempty"`
	OKATO      string `json:"okato,omitempty" yaml:"okato" bson:"okato,omitempty"`
	OKTMO      string `json:"oktmo,omitempty" yaml:"oktmo" bson:"oktmo,omitempty"`
	IFNSFL     string `json:"ifns_fl,omitempty" yaml:"ifns_fl" bson:"ifns_fl,omitempty"`
	IFNSUL     string `json:"ifns_ul,omitempty" yaml:"ifns_ul" bson:"ifns_ul,omitempty"`
}

// StructuredAddress is a leveled address with diagnostics.
//
// The zero value is an empty address. Parts are held in an array so that
// Clone only has to copy the message slice; a branch of the parser can
// therefore mutate its own copy without touching any other hypothesis.
type StructuredAddress struct {
	parts      [levelCount]Component
	PostalCode string
	Codes      Codes
	messages   []Message
}

// Clone returns an independent copy.
func (a *StructuredAddress) Clone() *StructuredAddress {
	c := *a
	if a.messages != nil {
		c.messages = make([]Message, len(a.messages))
		copy(c.messages, a.messages)
	}
	return &c
}

func (a *StructuredAddress) Component(l Level) Component {
	if !l.Valid() {
		return Component{}
	}
	return a.parts[l]
}

func (a *StructuredAddress) Name(l Level) string { return a.Component(l).Name }
func (a *StructuredAddress) Type(l Level) string { return a.Component(l).Type }
func (a *StructuredAddress) GUID(l Level) string { return a.Component(l).GUID }

// Has reports whether a name is set at l.
func (a *StructuredAddress) Has(l Level) bool {
	return a.Name(l) != ""
}

func (a *StructuredAddress) SetName(l Level, name string) {
	a.mustValid(l)
	a.parts[l].Name = name
}

func (a *StructuredAddress) SetType(l Level, typ string) {
	a.mustValid(l)
	a.parts[l].Type = typ
}

func (a *StructuredAddress) SetGUID(l Level, guid string) {
	a.mustValid(l)
	a.parts[l].GUID = guid
}

func (a *StructuredAddress) SetRecordID(l Level, id int64) {
	a.mustValid(l)
	a.parts[l].RecordID = id
}

// ClearFromLevel drops the data and messages of l and every deeper level.
func (a *StructuredAddress) ClearFromLevel(l Level) {
	if l == LevelUnknown {
		l = LevelRegion
	}
	for i := l; i < levelCount; i++ {
		a.parts[i] = Component{}
	}
	kept := a.messages[:0:0]
	for _, m := range a.messages {
		if m.Level < l {
			kept = append(kept, m)
		}
	}
	a.messages = kept
}

// ClearGUIDsFromLevel drops resolved identifiers of l and every deeper level,
// keeping names and types.
func (a *StructuredAddress) ClearGUIDsFromLevel(l Level) {
	if l == LevelUnknown {
		l = LevelRegion
	}
	for i := l; i < levelCount; i++ {
		a.parts[i].GUID = ""
		a.parts[i].RecordID = 0
	}
}

// DeepestLevel returns the deepest level with a name, or LevelUnknown.
func (a *StructuredAddress) DeepestLevel() Level {
	for l := MaxLevel; l > LevelUnknown; l-- {
		if a.parts[l].Name != "" {
			return l
		}
	}
	return LevelUnknown
}

// Levels returns the set of named levels.
func (a *StructuredAddress) Levels() LevelSet {
	var s LevelSet
	for l := LevelRegion; l < levelCount; l++ {
		if a.parts[l].Name != "" {
			s |= 1 << l
		}
	}
	return s
}

// IsEmpty reports whether no level is named.
func (a *StructuredAddress) IsEmpty() bool {
	return a.DeepestLevel() == LevelUnknown
}

func (a *StructuredAddress) AddMessage(l Level, sev Severity, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	a.messages = append(a.messages, Message{Level: l, Severity: sev, Text: text})
}

// Messages returns a copy of the diagnostics.
func (a *StructuredAddress) Messages() []Message {
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// MessagesAt returns the diagnostics attached to l.
func (a *StructuredAddress) MessagesAt(l Level) []Message {
	var out []Message
	for _, m := range a.messages {
		if m.Level == l {
			out = append(out, m)
		}
	}
	return out
}

// Severity returns the worst severity among all messages.
func (a *StructuredAddress) Severity() Severity {
	worst := SeverityNone
	for _, m := range a.messages {
		if m.Severity > worst {
			worst = m.Severity
		}
	}
	return worst
}

// SeverityAt returns the worst severity among messages attached to l.
func (a *StructuredAddress) SeverityAt(l Level) Severity {
	worst := SeverityNone
	for _, m := range a.messages {
		if m.Level == l && m.Severity > worst {
			worst = m.Severity
		}
	}
	return worst
}

// CountSeverity counts messages of exactly sev.
func (a *StructuredAddress) CountSeverity(sev Severity) int {
	n := 0
	for _, m := range a.messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// Equal compares data and messages.
func (a *StructuredAddress) Equal(b *StructuredAddress) bool {
	if a.parts != b.parts || a.PostalCode != b.PostalCode || a.Codes != b.Codes {
		return false
	}
	if len(a.messages) != len(b.messages) {
		return false
	}
	for i := range a.messages {
		if a.messages[i] != b.messages[i] {
			return false
		}
	}
	return true
}

// String renders a compact debug form, e.g. "CITY=город Москва; STREET=улица Тверская".
func (a *StructuredAddress) String() string {
	var sb strings.Builder
	for l := LevelRegion; l < levelCount; l++ {
		p := a.parts[l]
		if p.Name == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(l.String())
		sb.WriteByte('=')
		if p.Type != "" {
			sb.WriteString(p.Type)
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Name)
	}
	return sb.String()
}

func (a *StructuredAddress) mustValid(l Level) {
	if !l.Valid() {
		Defect("structured address: invalid level %d", uint8(l))
	}
}
