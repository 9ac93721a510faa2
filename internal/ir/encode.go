package ir

import "fmt"

// ToIR converts the instruction set into IR values for canonical encoding.
func (s *InstructionSet) ToIR() (IRObject, error) {
	variants := make(IRArray, len(s.Variants))
	for i, v := range s.Variants {
		obj, err := v.ToIR()
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", v.Name, err)
		}
		variants[i] = obj
	}
	return IRObject{
		"name":     IRString(s.Name),
		"variants": variants,
	}, nil
}

// ToIR converts the variant into IR values for canonical encoding.
func (v InstructionVariant) ToIR() (IRObject, error) {
	fields, err := fieldsToIR(v.Fields)
	if err != nil {
		return nil, err
	}
	disc, err := discriminantToIR(v.Discriminant)
	if err != nil {
		return nil, err
	}

	accounts := make(IRArray, len(v.Accounts))
	for i, a := range v.Accounts {
		accounts[i] = a.toIR()
	}
	strategies := make(IRArray, len(v.Strategies))
	for i, s := range v.Strategies {
		strategies[i] = IRString(s)
	}

	return IRObject{
		"name":         IRString(v.Name),
		"fields":       fields,
		"accounts":     accounts,
		"strategies":   strategies,
		"discriminant": disc,
	}, nil
}

func (a Account) toIR() IRObject {
	obj := IRObject{
		"name":            IRString(a.Name),
		"writable":        IRBool(a.Writable),
		"signer":          IRBool(a.Signer),
		"optional_signer": IRBool(a.OptionalSigner),
		"optional":        IRBool(a.Optional),
	}
	if a.Index != nil {
		obj["index"] = IRInt(*a.Index)
	}
	if a.Desc != "" {
		obj["desc"] = IRString(a.Desc)
	}
	return obj
}

func fieldsToIR(f Fields) (IRObject, error) {
	switch fs := f.(type) {
	case NamedFields:
		list := make(IRArray, len(fs))
		for i, nf := range fs {
			list[i] = IRObject{"name": IRString(nf.Name), "type": IRString(nf.Type)}
		}
		return IRObject{"kind": IRString("named"), "fields": list}, nil
	case UnnamedFields:
		list := make(IRArray, len(fs))
		for i, t := range fs {
			list[i] = IRString(t)
		}
		return IRObject{"kind": IRString("unnamed"), "fields": list}, nil
	case nil:
		return nil, fmt.Errorf("variant has no field shape")
	default:
		return nil, fmt.Errorf("unknown field shape %T", f)
	}
}

func discriminantToIR(d Discriminant) (IRObject, error) {
	switch disc := d.(type) {
	case IncrementDiscriminant:
		return IRObject{"type": IRString("u8"), "value": IRInt(disc.Value)}, nil
	case ArrayDiscriminant:
		values := make(IRArray, len(disc.Value))
		for i, b := range disc.Value {
			values[i] = IRInt(b)
		}
		return IRObject{"type": IRString("[u8;8]"), "value": values}, nil
	case nil:
		return nil, fmt.Errorf("variant has no resolved discriminant")
	default:
		return nil, fmt.Errorf("unknown discriminant %T", d)
	}
}
