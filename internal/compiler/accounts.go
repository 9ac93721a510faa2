package compiler

import (
	"fmt"

	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/source"
)

// AccountAttr declares one account an instruction reads or writes.
const AccountAttr = "account"

// ExtractAccounts collects the accounts declared on a case, in annotation
// order:
//
//	#[account(0, name = "payer", mut, signer, desc = "Pays for the vault")]
//
// The leading index is optional; when given it must equal the account's
// position. name is required.
func ExtractAccounts(annotations []source.Annotation) ([]ir.Account, error) {
	accounts := []ir.Account{}
	for _, a := range source.Filter(annotations, AccountAttr) {
		acc, err := parseAccount(a)
		if err != nil {
			return nil, err
		}
		if acc.Index != nil && *acc.Index != len(accounts) {
			return nil, accountError(a, fmt.Sprintf("account %q has index %d but is declared at position %d",
				acc.Name, *acc.Index, len(accounts)))
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func parseAccount(a source.Annotation) (ir.Account, error) {
	meta, err := a.Meta()
	if err != nil {
		return ir.Account{}, accountError(a, err.Error())
	}
	if meta.Kind != source.MetaList {
		return ir.Account{}, accountError(a, "requires a list of arguments")
	}

	var acc ir.Account
	var hasName bool
	for i, entry := range meta.Nested {
		if entry.IsLit() {
			if i != 0 || entry.Lit.Kind != source.LitInt {
				return ir.Account{}, accountError(a, fmt.Sprintf("unexpected literal %s, only a leading index is allowed", entry))
			}
			n, err := entry.Lit.Uint(32)
			if err != nil {
				return ir.Account{}, accountError(a, err.Error())
			}
			idx := int(n)
			acc.Index = &idx
			continue
		}

		m := entry.Meta
		switch m.Kind {
		case source.MetaPath:
			switch m.Path {
			case "mut", "writable", "write":
				acc.Writable = true
			case "signer", "sign", "sig":
				acc.Signer = true
			case "optional_signer":
				acc.OptionalSigner = true
			case "optional", "option", "opt":
				acc.Optional = true
			default:
				return ir.Account{}, accountError(a, fmt.Sprintf("unknown account property %q", m.Path))
			}
		case source.MetaNameValue:
			if m.Value.Kind != source.LitStr {
				return ir.Account{}, accountError(a, fmt.Sprintf("%s must be a string, got %s", m.Path, m.Value.Text))
			}
			switch m.Path {
			case "name":
				acc.Name = m.Value.Value
				hasName = true
			case "desc", "description", "docs":
				acc.Desc = m.Value.Value
			default:
				return ir.Account{}, accountError(a, fmt.Sprintf("unknown account property %q", m.Path))
			}
		default:
			return ir.Account{}, accountError(a, fmt.Sprintf("unexpected argument %s", m))
		}
	}

	if !hasName || acc.Name == "" {
		return ir.Account{}, accountError(a, "account name is required, e.g. name = \"payer\"")
	}
	if acc.Signer && acc.OptionalSigner {
		return ir.Account{}, accountError(a, fmt.Sprintf("account %q cannot be both signer and optional_signer", acc.Name))
	}
	return acc, nil
}

func accountError(a source.Annotation, msg string) *CompileError {
	return &CompileError{
		Code:       ErrInvalidAccount,
		Annotation: AccountAttr,
		Message:    msg,
		Pos:        a.Pos,
	}
}
