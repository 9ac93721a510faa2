package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyyeti/shank/internal/ir"
)

func TestRecordRun(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("run-1")))
	ctx := context.Background()

	set := createTestSet("Instruction", map[string]uint8{"Init": 0, "Close": 9}, "Init", "Close")
	run, err := s.RecordRun(ctx, "vault", "src/lib.rs", []*ir.InstructionSet{set})
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, "vault", run.Program)
	assert.Equal(t, "src/lib.rs", run.Input)
	assert.Equal(t, ir.ToolVersion, run.ToolVersion)
	assert.Equal(t, ir.IRVersion, run.IRVersion)

	hash, err := ir.InstructionSetHash(set)
	require.NoError(t, err)
	assert.Equal(t, []SetDigest{{Name: "Instruction", Hash: hash}}, run.Sets)
}

func TestRecordRun_SeqIncrements(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("a", "b", "c")))
	ctx := context.Background()
	set := createTestSet("Instruction", map[string]uint8{"Init": 0}, "Init")

	for want := int64(1); want <= 3; want++ {
		run, err := s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{set})
		require.NoError(t, err)
		assert.Equal(t, want, run.Seq)
	}
}

func TestRecordRun_DuplicateID(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("same", "same")))
	ctx := context.Background()
	set := createTestSet("Instruction", map[string]uint8{"Init": 0}, "Init")

	_, err := s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{set})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{set})
	require.Error(t, err)

	// The failed run leaves nothing behind.
	runs, err := s.ListRuns(ctx, "vault")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRun_RejectsUnresolvedVariant(t *testing.T) {
	s := createTestStore(t)
	set := &ir.InstructionSet{
		Name:     "Instruction",
		Variants: []ir.InstructionVariant{{Name: "Half", Fields: ir.UnnamedFields{}}},
	}

	_, err := s.RecordRun(context.Background(), "vault", "lib.rs", []*ir.InstructionSet{set})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Instruction::Half")
}

func TestRecordRun_RejectsDuplicateSetName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	lib := createTestSet("Instruction", map[string]uint8{"Init": 0}, "Init")
	other := createTestSet("Instruction", map[string]uint8{"Deposit": 0, "Withdraw": 1}, "Deposit", "Withdraw")

	_, err := s.RecordRun(ctx, "vault", "src", []*ir.InstructionSet{lib, other})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate instruction set Instruction")

	runs, err := s.ListRuns(ctx, "vault")
	require.NoError(t, err)
	assert.Empty(t, runs, "nothing is recorded")

	_, err = VariantRecords(lib, other)
	assert.Error(t, err)
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("v1", "other", "v2")))
	ctx := context.Background()

	first := createTestSet("Instruction", map[string]uint8{"Init": 0}, "Init")
	second := createTestSet("Instruction", map[string]uint8{"Init": 0, "Close": 1}, "Init", "Close")

	_, err := s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{first})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, "escrow", "escrow.rs", []*ir.InstructionSet{first})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{second})
	require.NoError(t, err)

	run, err := s.LatestRun(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, "v2", run.ID)
	assert.Equal(t, int64(3), run.Seq)
	require.Len(t, run.Sets, 1)

	hash, err := ir.InstructionSetHash(second)
	require.NoError(t, err)
	assert.Equal(t, hash, run.Sets[0].Hash)
}

func TestLatestRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LatestRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("r1", "r2", "r3")))
	ctx := context.Background()
	set := createTestSet("Instruction", map[string]uint8{"Init": 0}, "Init")

	for _, program := range []string{"vault", "escrow", "vault"} {
		_, err := s.RecordRun(ctx, program, program+".rs", []*ir.InstructionSet{set})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, "vault")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r1", runs[0].ID)
	assert.Equal(t, "r3", runs[1].ID)
	assert.Len(t, runs[1].Sets, 1)

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), "vault")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRunVariants(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("run-1")))
	ctx := context.Background()

	// Declaration order differs from name order and from discriminant order.
	primary := createTestSet("Instruction", map[string]uint8{"Zeta": 5, "Alpha": 1}, "Zeta", "Alpha")
	admin := &ir.InstructionSet{
		Name: "AdminInstruction",
		Variants: []ir.InstructionVariant{{
			Name:         "Migrate",
			Fields:       ir.UnnamedFields{},
			Accounts:     []ir.Account{},
			Strategies:   []ir.Strategy{},
			Discriminant: ir.ArrayDiscriminant{Value: [8]uint8{1, 2, 3, 4, 5, 6, 7, 8}},
		}},
	}

	run, err := s.RecordRun(ctx, "vault", "lib.rs", []*ir.InstructionSet{primary, admin})
	require.NoError(t, err)

	got, err := s.RunVariants(ctx, run.ID)
	require.NoError(t, err)

	want, err := VariantRecords(primary, admin)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, got, 3)
	assert.Equal(t, "Zeta", got[0].Name)
	assert.Equal(t, "05", got[0].Discriminant)
	assert.Equal(t, "Alpha", got[1].Name)
	assert.Equal(t, "0102030405060708", got[2].Discriminant)
}

func TestRunVariants_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	got, err := s.RunVariants(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
