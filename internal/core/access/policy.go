package access

// Operation は保護対象の操作を識別します。
// Group は操作をまとめる単位 (HTTP のルートグループや gRPC のサービス) です。
type Operation struct {
	Group string
	Name  string
}

func (o Operation) String() string {
	if o.Group == "" {
		return o.Name
	}
	return o.Group + ":" + o.Name
}

// Policy は操作単位・グループ単位の要件宣言を保持します。
// 構築後は読み取り専用として扱います。
type Policy struct {
	operations map[string]Requirement
	groups     map[string]Requirement
}

// NewPolicy は空の Policy を生成します。
func NewPolicy() *Policy {
	return &Policy{
		operations: make(map[string]Requirement),
		groups:     make(map[string]Requirement),
	}
}

// RequireOperation は操作単位の要件を宣言します。
// statuses を省略すると「明示的に制限なし」として宣言され、グループの要件を上書きします。
func (p *Policy) RequireOperation(name string, statuses ...string) *Policy {
	p.operations[name] = Require(statuses...)
	return p
}

// RequireGroup はグループ単位の要件を宣言します。
func (p *Policy) RequireGroup(group string, statuses ...string) *Policy {
	p.groups[group] = Require(statuses...)
	return p
}

// Resolve は操作に適用される要件を返します。
// 操作単位の宣言が存在すればグループ単位の宣言より優先されます (和集合ではなく上書き)。
// どちらも宣言されていない場合は false を返します。
func (p *Policy) Resolve(op Operation) (Requirement, bool) {
	if p == nil {
		return nil, false
	}
	if req, ok := p.operations[op.Name]; ok {
		return req, true
	}
	if op.Group == "" {
		return nil, false
	}
	if req, ok := p.groups[op.Group]; ok {
		return req, true
	}
	return nil, false
}

// Merge は other の宣言で p を上書きした新しい Policy を返します。
func (p *Policy) Merge(other *Policy) *Policy {
	merged := NewPolicy()
	for _, src := range []*Policy{p, other} {
		if src == nil {
			continue
		}
		for name, req := range src.operations {
			merged.operations[name] = Require(req...)
		}
		for group, req := range src.groups {
			merged.groups[group] = Require(req...)
		}
	}
	return merged
}
