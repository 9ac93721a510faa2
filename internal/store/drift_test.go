package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyyeti/shank/internal/ir"
)

func TestCompareVariants(t *testing.T) {
	prev := []VariantRecord{
		{InstructionSet: "Instruction", Name: "Init", Discriminant: "00"},
		{InstructionSet: "Instruction", Name: "Deposit", Discriminant: "01"},
		{InstructionSet: "Instruction", Name: "Withdraw", Discriminant: "02"},
		{InstructionSet: "Admin", Name: "Init", Discriminant: "0102030405060708"},
	}
	cur := []VariantRecord{
		{InstructionSet: "Instruction", Name: "Init", Discriminant: "00"},
		{InstructionSet: "Instruction", Name: "Withdraw", Discriminant: "01"},
		{InstructionSet: "Instruction", Name: "Close", Discriminant: "02"},
		{InstructionSet: "Admin", Name: "Init", Discriminant: "0102030405060708"},
	}

	want := []Drift{
		{Kind: DriftRemoved, InstructionSet: "Instruction", Name: "Deposit", Before: "01"},
		{Kind: DriftChanged, InstructionSet: "Instruction", Name: "Withdraw", Before: "02", After: "01"},
	}
	if diff := cmp.Diff(want, CompareVariants(prev, cur)); diff != "" {
		t.Errorf("CompareVariants() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareVariants_NoDrift(t *testing.T) {
	prev := []VariantRecord{{InstructionSet: "Instruction", Name: "Init", Discriminant: "00"}}
	cur := append(prev, VariantRecord{InstructionSet: "Instruction", Name: "Close", Discriminant: "01"})

	got := CompareVariants(prev, cur)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, CompareVariants(nil, cur))
}

func TestCompareVariants_SetsAreSeparate(t *testing.T) {
	prev := []VariantRecord{{InstructionSet: "A", Name: "Init", Discriminant: "00"}}
	cur := []VariantRecord{{InstructionSet: "B", Name: "Init", Discriminant: "00"}}

	got := CompareVariants(prev, cur)
	require.Len(t, got, 1)
	assert.Equal(t, DriftRemoved, got[0].Kind)
}

func TestDriftString(t *testing.T) {
	assert.Equal(t, "Instruction::Deposit removed (was 01)",
		Drift{Kind: DriftRemoved, InstructionSet: "Instruction", Name: "Deposit", Before: "01"}.String())
	assert.Equal(t, "Instruction::Withdraw discriminant changed 02 -> 01",
		Drift{Kind: DriftChanged, InstructionSet: "Instruction", Name: "Withdraw", Before: "02", After: "01"}.String())
	assert.Equal(t, "unknown", DriftKind(7).String())
}

func TestDriftJSON(t *testing.T) {
	in := Drift{Kind: DriftRemoved, InstructionSet: "Instruction", Name: "Deposit", Before: "01"}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"removed","instruction_set":"Instruction","name":"Deposit","before":"01"}`, string(data))

	var out Drift
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var kind DriftKind
	assert.Error(t, kind.UnmarshalText([]byte("renamed")))
}

func TestDrift_AgainstRecordedRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	before := createTestSet("Instruction", map[string]uint8{"Init": 0, "Close": 1}, "Init", "Close")
	_, err := s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{before})
	require.NoError(t, err)

	// Inserting a variant ahead of Close shifts its implicit discriminant.
	after := createTestSet("Instruction", map[string]uint8{"Init": 0, "Pause": 1, "Close": 2}, "Init", "Pause", "Close")

	latest, err := s.LatestRun(ctx, "vault")
	require.NoError(t, err)
	prev, err := s.RunVariants(ctx, latest.ID)
	require.NoError(t, err)
	cur, err := VariantRecords(after)
	require.NoError(t, err)

	drifts := CompareVariants(prev, cur)
	require.Len(t, drifts, 1)
	assert.Equal(t, "Instruction::Close discriminant changed 01 -> 02", drifts[0].String())
}
