package ir

// InstructionSet represents a compiled instruction enum.
// Variants are in declaration order, which is significant for default
// discriminants and for wire-format stability.
type InstructionSet struct {
	Name     string               `json:"name"`
	Variants []InstructionVariant `json:"variants"`
}

// InstructionVariant represents one case of the instruction enum.
type InstructionVariant struct {
	Name         string       `json:"name"`
	Fields       Fields       `json:"fields"`
	Accounts     []Account    `json:"accounts"`
	Strategies   []Strategy   `json:"strategies"`
	Discriminant Discriminant `json:"discriminant"`
}

// Fields is the payload shape carried by a variant.
// Only NamedFields and UnnamedFields implement it.
type Fields interface {
	fields() // Sealed

	// Len returns the number of payload fields.
	Len() int
}

// TypeRef is a field type exactly as written in the source, e.g. "u64" or
// "Option<Pubkey>".
type TypeRef string

// NamedField is one labelled payload field.
type NamedField struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// NamedFields is the payload of a struct-like variant.
type NamedFields []NamedField

func (NamedFields) fields() {}

// Len returns the number of fields.
func (f NamedFields) Len() int { return len(f) }

// UnnamedFields is the payload of a tuple-like or unit variant.
type UnnamedFields []TypeRef

func (UnnamedFields) fields() {}

// Len returns the number of fields.
func (f UnnamedFields) Len() int { return len(f) }

// Account describes one account an instruction requires.
type Account struct {
	Index          *int   `json:"index,omitempty"` // Declared index, if any
	Name           string `json:"name"`
	Writable       bool   `json:"writable"`
	Signer         bool   `json:"signer"`
	OptionalSigner bool   `json:"optional_signer"`
	Optional       bool   `json:"optional"`
	Desc           string `json:"desc,omitempty"`
}

// Strategy is a behavioral marker attached to a variant. The core passes
// strategies through; downstream generators interpret them.
type Strategy string

const (
	// StrategyDefaultOptionalAccounts omits unset optional accounts instead of
	// substituting the program id.
	StrategyDefaultOptionalAccounts Strategy = "default_optional_accounts"

	// StrategyLegacyOptionalAccounts substitutes the program id for unset
	// optional accounts.
	StrategyLegacyOptionalAccounts Strategy = "legacy_optional_accounts"
)

// HasStrategy reports whether the variant carries s.
func (v InstructionVariant) HasStrategy(s Strategy) bool {
	for _, have := range v.Strategies {
		if have == s {
			return true
		}
	}
	return false
}
