package procfile

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateProcedure converts a procedure block into a procedure item.
func translateProcedure(ctx context.Context, b *procedureBlock) (*model.ProcedureItem, error) {
	proc := model.NewProcedure(b.Name)
	if b.Description != nil {
		proc.SetDescription(*b.Description)
	}

	seen := make(map[string]struct{})
	for _, vb := range b.Variables {
		if _, dup := seen[vb.Name]; dup {
			return nil, fmt.Errorf("procedure %q: duplicate variable %q", b.Name, vb.Name)
		}
		seen[vb.Name] = struct{}{}
		v, err := translateVariable(ctx, vb)
		if err != nil {
			return nil, fmt.Errorf("procedure %q: %w", b.Name, err)
		}
		proc.Workspace().Add(v)
	}

	var rootFound bool
	for _, ib := range b.Instructions {
		item, err := translateInstruction(ctx, ib)
		if err != nil {
			return nil, fmt.Errorf("procedure %q: %w", b.Name, err)
		}
		if b.Root != nil && *b.Root == ib.Name {
			item.SetRoot(true)
			rootFound = true
		}
		proc.Instructions().Add(item)
	}
	if b.Root != nil && !rootFound {
		return nil, fmt.Errorf("procedure %q: root instruction %q is not a top-level instruction", b.Name, *b.Root)
	}
	return proc, nil
}

func translateInstruction(ctx context.Context, b *instructionBlock) (*model.InstructionItem, error) {
	item := model.NewInstructionFor(b.Type)
	item.SetName(b.Name)

	attrs, err := bodyAttributes(b.Body)
	if err != nil {
		return nil, fmt.Errorf("instruction %q: %w", b.Name, err)
	}
	for _, name := range sortedNames(attrs) {
		item.SetAttribute(name, anyvalue.Format(attrs[name]))
	}
	for _, child := range b.Children {
		c, err := translateInstruction(ctx, child)
		if err != nil {
			return nil, err
		}
		item.AddChild(c)
	}
	ctxlog.FromContext(ctx).Debug("Translated instruction.", "type", b.Type, "name", b.Name, "kind", item.Kind().String())
	return item, nil
}

func translateVariable(ctx context.Context, b *variableBlock) (*model.VariableItem, error) {
	ty, err := typeExprToCtyType(ctx, b.ValueType)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", b.Name, err)
	}

	value := cty.NullVal(ty)
	if b.Value != nil {
		val, diags := b.Value.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable %q: invalid value: %w", b.Name, diags)
		}
		if !val.IsNull() {
			value = val
		}
	}
	if ty != cty.DynamicPseudoType && !value.IsNull() {
		converted, err := convert.Convert(value, ty)
		if err != nil {
			return nil, fmt.Errorf("variable %q: cannot convert %s to %s: %w", b.Name, value.Type().FriendlyName(), ty.FriendlyName(), err)
		}
		value = converted
	}
	if value.Type() == cty.DynamicPseudoType {
		// An untyped variable without a value starts empty.
		value = cty.NilVal
	}

	v := model.NewVariable(b.Type, b.Name, value)
	attrs, err := bodyAttributes(b.Body, "type", "value")
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", b.Name, err)
	}
	for _, name := range sortedNames(attrs) {
		v.SetAttribute(name, anyvalue.Format(attrs[name]))
	}
	return v, nil
}

// bodyAttributes evaluates the remaining attributes of a block, leaving out
// the names in skip. Nested blocks were already decoded by gohcl and are
// ignored. Expressions are evaluated without variables or functions.
func bodyAttributes(body hcl.Body, skip ...string) (map[string]cty.Value, error) {
	if body == nil {
		return nil, nil
	}
	exprs := make(map[string]hcl.Expression)
	if sb, ok := body.(*hclsyntax.Body); ok {
		for name, attr := range sb.Attributes {
			exprs[name] = attr.Expr
		}
	} else {
		attrs, diags := body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		for name, attr := range attrs {
			exprs[name] = attr.Expr
		}
	}
	for _, name := range skip {
		delete(exprs, name)
	}

	out := make(map[string]cty.Value, len(exprs))
	for name, expr := range exprs {
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}

func sortedNames(m map[string]cty.Value) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
