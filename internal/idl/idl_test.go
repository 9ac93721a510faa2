package idl

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyyeti/shank/internal/ir"
)

func intp(i int) *int { return &i }

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func explicitDiscriminantsSet() *ir.InstructionSet {
	return &ir.InstructionSet{
		Name: "Instruction",
		Variants: []ir.InstructionVariant{
			{
				Name:   "CreateThing",
				Fields: ir.UnnamedFields{},
				Accounts: []ir.Account{
					{Index: intp(0), Name: "creator", Signer: true},
					{Index: intp(1), Name: "thing", Writable: true},
				},
				Strategies:   []ir.Strategy{},
				Discriminant: ir.IncrementDiscriminant{Value: 10},
			},
			{
				Name:         "CloseThing",
				Fields:       ir.UnnamedFields{},
				Accounts:     []ir.Account{{Name: "original_creator", Signer: true}},
				Strategies:   []ir.Strategy{},
				Discriminant: ir.ArrayDiscriminant{Value: [8]uint8{10, 20, 30, 40, 50, 60, 70, 80}},
			},
		},
	}
}

func vaultSet() *ir.InstructionSet {
	return &ir.InstructionSet{
		Name: "VaultInstruction",
		Variants: []ir.InstructionVariant{
			{
				Name:   "Initialize",
				Fields: ir.NamedFields{{Name: "bump", Type: "u8"}, {Name: "authority", Type: "Pubkey"}},
				Accounts: []ir.Account{
					{Index: intp(0), Name: "payer", Writable: true, Signer: true, Desc: "Pays for the vault account"},
					{Index: intp(1), Name: "vault", Writable: true},
					{Index: intp(2), Name: "system_program"},
				},
				Strategies:   []ir.Strategy{},
				Discriminant: ir.IncrementDiscriminant{Value: 0},
			},
			{
				Name:   "Deposit",
				Fields: ir.UnnamedFields{"DepositArgs"},
				Accounts: []ir.Account{
					{Name: "vault", Writable: true},
					{Name: "referrer", Optional: true},
				},
				Strategies:   []ir.Strategy{ir.StrategyDefaultOptionalAccounts},
				Discriminant: ir.IncrementDiscriminant{Value: 1},
			},
			{
				Name:         "Withdraw",
				Fields:       ir.UnnamedFields{"u64", "Option<Pubkey>"},
				Accounts:     []ir.Account{{Name: "owner", OptionalSigner: true}},
				Strategies:   []ir.Strategy{ir.StrategyLegacyOptionalAccounts},
				Discriminant: ir.IncrementDiscriminant{Value: 254},
			},
			{
				Name: "Migrate",
				Fields: ir.NamedFields{
					{Name: "new_version", Type: "[u8; 8]"},
					{Name: "data", Type: "Vec<u8>"},
					{Name: "limits", Type: "BTreeMap<String, Vec<u64>>"},
				},
				Accounts:     []ir.Account{},
				Strategies:   []ir.Strategy{},
				Discriminant: ir.ArrayDiscriminant{Value: [8]uint8{1, 2, 3, 4, 5, 6, 7, 8}},
			},
		},
	}
}

func TestBuildGoldenExplicitDiscriminants(t *testing.T) {
	doc, err := Build(Program{Name: "instruction_with_explicit_discriminants", Version: "0.1.0"}, explicitDiscriminantsSet())
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "explicit_discriminants", data)
}

func TestBuildGoldenVault(t *testing.T) {
	doc, err := Build(Program{
		Name:    "vault",
		Version: "1.2.0",
		Address: "Vau1t11111111111111111111111111111111111111",
	}, vaultSet())
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "vault", data)
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build(Program{Name: "vault"}, vaultSet())
	require.NoError(t, err)
	second, err := Build(Program{Name: "vault"}, vaultSet())
	require.NoError(t, err)

	a, err := Marshal(first)
	require.NoError(t, err)
	b, err := Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuildConcatenatesSets(t *testing.T) {
	doc, err := Build(Program{Name: "multi"}, explicitDiscriminantsSet(), vaultSet())
	require.NoError(t, err)
	require.Len(t, doc.Instructions, 6)
	assert.Equal(t, "CreateThing", doc.Instructions[0].Name)
	assert.Equal(t, "Migrate", doc.Instructions[5].Name)
}

func TestBuildRejectsUnresolvedVariant(t *testing.T) {
	set := &ir.InstructionSet{
		Name:     "Instruction",
		Variants: []ir.InstructionVariant{{Name: "Half", Fields: ir.UnnamedFields{}}},
	}
	_, err := Build(Program{Name: "p"}, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Instruction::Half")
	assert.Contains(t, err.Error(), "no resolved discriminant")
}

func TestBuildRejectsBadType(t *testing.T) {
	set := &ir.InstructionSet{
		Name: "Instruction",
		Variants: []ir.InstructionVariant{{
			Name:         "Bad",
			Fields:       ir.UnnamedFields{"Vec<u8"},
			Discriminant: ir.IncrementDiscriminant{Value: 0},
		}},
	}
	_, err := Build(Program{Name: "p"}, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `type "Vec<u8"`)
}

func TestArgNaming(t *testing.T) {
	tests := []struct {
		name   string
		fields ir.Fields
		want   []string
	}{
		{"named", ir.NamedFields{{Name: "new_authority", Type: "Pubkey"}}, []string{"newAuthority"}},
		{"named with gap", ir.NamedFields{{Name: "amount", Type: "u64"}, {Type: "bool"}}, []string{"amount", "arg1"}},
		{"single defined tuple", ir.UnnamedFields{"CreateArgsV2"}, []string{"createArgsV2"}},
		{"single qualified tuple", ir.UnnamedFields{"crate::args::MintArgs"}, []string{"mintArgs"}},
		{"single primitive tuple", ir.UnnamedFields{"u64"}, []string{"arg0"}},
		{"tuple", ir.UnnamedFields{"u64", "Pubkey"}, []string{"arg0", "arg1"}},
		{"unit", ir.UnnamedFields{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := argsOf(tt.fields)
			require.NoError(t, err)
			got := make([]string, len(args))
			for i, a := range args {
				got[i] = a.Name
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "systemProgram", CamelCase("system_program"))
	assert.Equal(t, "payer", CamelCase("payer"))
	assert.Equal(t, "tokenMetadataProgram", CamelCase("token_metadata_program"))
	assert.Equal(t, "ataProgram", CamelCase("_ata__program_"))
	assert.Equal(t, "alreadyCamel", CamelCase("alreadyCamel"))
	assert.Equal(t, "", CamelCase(""))
}

func TestSchema(t *testing.T) {
	data, err := MarshalSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "shank IDL", schema["title"])
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "instructions")
	assert.Contains(t, props, "metadata")
	assert.Contains(t, schema["required"], "instructions")
}
