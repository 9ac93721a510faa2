// Package ir provides the typed instruction model extracted from annotated
// instruction enums.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Discriminant and Fields are sealed sum types; consumers switch on them
//     exhaustively.
//   - A finished InstructionVariant always carries a non-nil Discriminant.
//   - Values are built once and never mutated afterwards. Strategy sets are
//     stored sorted so that two builds of the same input are deeply equal.
//   - All JSON tags use snake_case
package ir
