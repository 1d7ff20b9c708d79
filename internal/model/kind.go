package model

// Kind is the closed set of instruction kinds with a known attribute schema.
// Instructions of any other domain type use KindUniversal.
type Kind int

const (
	KindUniversal Kind = iota
	KindSequence
	KindFallback
	KindRepeat
	KindInclude
	KindInverter
	KindWait
	KindMessage
	KindInput
	KindChoice
	KindCopy
	KindEquals
)

// AttributeDef declares an attribute of a kind and its default value.
type AttributeDef struct {
	Name    string
	Default string
}

type kindInfo struct {
	domainType string
	attrs      []AttributeDef
}

var kinds = map[Kind]kindInfo{
	KindSequence: {domainType: "Sequence"},
	KindFallback: {domainType: "Fallback"},
	KindRepeat:   {domainType: "Repeat", attrs: []AttributeDef{{"maxCount", "-1"}}},
	KindInclude:  {domainType: "Include", attrs: []AttributeDef{{"path", ""}}},
	KindInverter: {domainType: "Inverter"},
	KindWait:     {domainType: "Wait", attrs: []AttributeDef{{"timeout", "0"}}},
	KindMessage:  {domainType: "Message", attrs: []AttributeDef{{"text", ""}, {"severity", "info"}}},
	KindInput:    {domainType: "Input", attrs: []AttributeDef{{"outputVar", ""}, {"description", ""}}},
	KindChoice:   {domainType: "UserChoice", attrs: []AttributeDef{{"description", ""}}},
	KindCopy:     {domainType: "Copy", attrs: []AttributeDef{{"inputVar", ""}, {"outputVar", ""}}},
	KindEquals:   {domainType: "Equals", attrs: []AttributeDef{{"leftVar", ""}, {"rightVar", ""}}},
}

// Kinds lists every kind with a schema, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := KindSequence; k <= KindEquals; k++ {
		out = append(out, k)
	}
	return out
}

// KindFromDomainType maps a domain instruction type to its kind.
func KindFromDomainType(domainType string) Kind {
	for k, info := range kinds {
		if info.domainType == domainType {
			return k
		}
	}
	return KindUniversal
}

// DomainType is the engine type name of the kind. KindUniversal has none.
func (k Kind) DomainType() string {
	return kinds[k].domainType
}

// Schema returns the attribute declarations of the kind.
func (k Kind) Schema() []AttributeDef {
	return append([]AttributeDef(nil), kinds[k].attrs...)
}

func (k Kind) String() string {
	if k == KindUniversal {
		return "Universal"
	}
	return k.DomainType()
}
