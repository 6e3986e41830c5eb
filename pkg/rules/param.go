package rules

// ParamRepair rewrites the top-level arguments of calls to the functions in
// Funcs. Arguments of other calls, including calls nested inside a matched
// call's arguments, are never handed to Repair for that call.
type ParamRepair struct {
	RuleName string
	Funcs    []string
	Repair   func(Call) ([]Arg, bool)
	When     func(src string) bool
}

// Name returns the rule name.
func (p *ParamRepair) Name() string { return p.RuleName }

// Apply rewrites matching calls when the precondition holds.
func (p *ParamRepair) Apply(src string) string {
	if p.When != nil && !p.When(src) {
		return src
	}
	return RewriteCalls(src, p.Funcs, p.Repair)
}

// If returns p with the precondition set to when.
func (p *ParamRepair) If(when func(src string) bool) *ParamRepair {
	p.When = when
	return p
}

// StripKwarg removes every key= argument from calls to funcs.
// With no funcs it applies to every call.
func StripKwarg(name, key string, funcs ...string) *ParamRepair {
	return &ParamRepair{
		RuleName: name,
		Funcs:    funcs,
		Repair: func(c Call) ([]Arg, bool) {
			if !c.HasKwarg(key) {
				return nil, false
			}
			out := make([]Arg, 0, len(c.Args))
			for _, a := range c.Args {
				if a.Key != key {
					out = append(out, a)
				}
			}
			return out, true
		},
	}
}

// RenameKwarg renames from= to to= in calls to funcs. When the call already
// passes to=, the from= argument is dropped instead.
func RenameKwarg(name, from, to string, funcs ...string) *ParamRepair {
	return &ParamRepair{
		RuleName: name,
		Funcs:    funcs,
		Repair: func(c Call) ([]Arg, bool) {
			if !c.HasKwarg(from) {
				return nil, false
			}
			has := c.HasKwarg(to)
			out := make([]Arg, 0, len(c.Args))
			for _, a := range c.Args {
				switch {
				case a.Key != from:
					out = append(out, a)
				case !has:
					out = append(out, a.WithKey(to))
					has = true
				}
			}
			return out, true
		},
	}
}

// DedupeKwargs keeps the first occurrence of each keyword argument in calls
// to funcs (every call when funcs is empty).
func DedupeKwargs(name string, funcs ...string) *ParamRepair {
	return &ParamRepair{
		RuleName: name,
		Funcs:    funcs,
		Repair: func(c Call) ([]Arg, bool) {
			seen := make(map[string]bool, len(c.Args))
			out := make([]Arg, 0, len(c.Args))
			for _, a := range c.Args {
				if a.Key != "" {
					if seen[a.Key] {
						continue
					}
					seen[a.Key] = true
				}
				out = append(out, a)
			}
			return out, len(out) != len(c.Args)
		},
	}
}

// AppendKwarg adds key=value to calls to funcs that do not pass key yet.
// value may inspect the call, for example to pick a default from context;
// returning "" leaves the call alone.
func AppendKwarg(name, key string, value func(Call) string, funcs ...string) *ParamRepair {
	return &ParamRepair{
		RuleName: name,
		Funcs:    funcs,
		Repair: func(c Call) ([]Arg, bool) {
			if c.HasKwarg(key) {
				return nil, false
			}
			v := value(c)
			if v == "" {
				return nil, false
			}
			return AppendArg(c.Args, NewKwarg(key, v)), true
		},
	}
}
