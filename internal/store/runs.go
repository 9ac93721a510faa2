package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fuzzyyeti/shank/internal/ir"
)

// Run is one recorded extraction of a program.
type Run struct {
	ID          string      `json:"id"`
	Seq         int64       `json:"seq"`
	Program     string      `json:"program"`
	Input       string      `json:"input"`
	ToolVersion string      `json:"tool_version"`
	IRVersion   string      `json:"ir_version"`
	Sets        []SetDigest `json:"instruction_sets"`
}

// SetDigest is the content hash of one instruction set in a run.
type SetDigest struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// VariantRecord is the stored wire identity of one variant.
type VariantRecord struct {
	InstructionSet string `json:"instruction_set"`
	Name           string `json:"name"`
	Ordinal        int    `json:"ordinal"`
	Discriminant   string `json:"discriminant"` // lowercase hex of the wire bytes
	Hash           string `json:"hash"`
}

// VariantRecords flattens sets into records in set order, then declaration
// order. Every variant must carry a resolved discriminant and set names must
// be unique, since records are keyed by set and variant name.
func VariantRecords(sets ...*ir.InstructionSet) ([]VariantRecord, error) {
	records := []VariantRecord{}
	seen := make(map[string]bool, len(sets))
	for _, set := range sets {
		if seen[set.Name] {
			return nil, fmt.Errorf("duplicate instruction set %s", set.Name)
		}
		seen[set.Name] = true
		for i, v := range set.Variants {
			if v.Discriminant == nil {
				return nil, fmt.Errorf("%s::%s has no resolved discriminant", set.Name, v.Name)
			}
			hash, err := ir.VariantHash(v)
			if err != nil {
				return nil, fmt.Errorf("%s::%s: %w", set.Name, v.Name, err)
			}
			records = append(records, VariantRecord{
				InstructionSet: set.Name,
				Name:           v.Name,
				Ordinal:        i,
				Discriminant:   ir.DiscriminantHex(v.Discriminant),
				Hash:           hash,
			})
		}
	}
	return records, nil
}

// RecordRun stores an extraction of program from input. The run gets the next
// seq; its sets and variants are written in one transaction.
func (s *Store) RecordRun(ctx context.Context, program, input string, sets []*ir.InstructionSet) (Run, error) {
	run := Run{
		ID:          s.ids.Generate(),
		Program:     program,
		Input:       input,
		ToolVersion: ir.ToolVersion,
		IRVersion:   ir.IRVersion,
		Sets:        make([]SetDigest, len(sets)),
	}
	records, err := VariantRecords(sets...)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	for i, set := range sets {
		hash, err := ir.InstructionSetHash(set)
		if err != nil {
			return Run{}, fmt.Errorf("record run: %w", err)
		}
		run.Sets[i] = SetDigest{Name: set.Name, Hash: hash}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM runs
	`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, program, input, tool_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Program,
		run.Input,
		run.ToolVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: insert run: %w", err)
	}

	for i, d := range run.Sets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO instruction_sets
			(run_id, name, hash, ordinal)
			VALUES (?, ?, ?, ?)
		`, run.ID, d.Name, d.Hash, i)
		if err != nil {
			return Run{}, fmt.Errorf("record run: insert set %s: %w", d.Name, err)
		}
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO variants
			(run_id, instruction_set, name, ordinal, discriminant, hash)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			r.InstructionSet,
			r.Name,
			r.Ordinal,
			r.Discriminant,
			r.Hash,
		)
		if err != nil {
			return Run{}, fmt.Errorf("record run: insert variant %s::%s: %w", r.InstructionSet, r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// LatestRun returns the run of program with the highest seq.
// Returns sql.ErrNoRows if the program has no runs.
func (s *Store) LatestRun(ctx context.Context, program string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, program, input, tool_version, ir_version
		FROM runs
		WHERE program = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, program)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run of %s: %w", program, err)
	}
	if run.Sets, err = s.runSets(ctx, run.ID); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run of program, oldest first. An empty program lists
// the runs of all programs.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, program string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, program, input, tool_version, ir_version
		FROM runs
		WHERE ? = '' OR program = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, program, program)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		if runs[i].Sets, err = s.runSets(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// RunVariants returns the variants recorded by a run in set order, then
// declaration order.
func (s *Store) RunVariants(ctx context.Context, runID string) ([]VariantRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.instruction_set, v.name, v.ordinal, v.discriminant, v.hash
		FROM variants v
		JOIN instruction_sets s ON s.run_id = v.run_id AND s.name = v.instruction_set
		WHERE v.run_id = ?
		ORDER BY s.ordinal ASC, v.ordinal ASC, v.name COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	records := []VariantRecord{}
	for rows.Next() {
		var r VariantRecord
		if err := rows.Scan(&r.InstructionSet, &r.Name, &r.Ordinal, &r.Discriminant, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return records, nil
}

func (s *Store) runSets(ctx context.Context, runID string) ([]SetDigest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, hash
		FROM instruction_sets
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query instruction sets: %w", err)
	}
	defer rows.Close()

	sets := []SetDigest{}
	for rows.Next() {
		var d SetDigest
		if err := rows.Scan(&d.Name, &d.Hash); err != nil {
			return nil, fmt.Errorf("scan instruction set: %w", err)
		}
		sets = append(sets, d)
	}
	return sets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	if err := row.Scan(
		&run.ID, &run.Seq, &run.Program, &run.Input, &run.ToolVersion, &run.IRVersion,
	); err != nil {
		return Run{}, err
	}
	return run, nil
}
