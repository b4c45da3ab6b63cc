package milvus

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
)

const (
	// operatorAnd is the "and" operator.
	operatorAnd = "and"

	// operatorOr is the "or" operator.
	operatorOr = "or"

	// operatorEqual is the "equal" operator.
	operatorEqual = "eq"

	// operatorIn is the "in" operator.
	operatorIn = "in"

	// operatorArrayContains matches array payload fields containing a value.
	operatorArrayContains = "array_contains"
)

type convertResult struct {
	exprStr string
	params  map[string]any
}

// filter converts condition trees into Milvus filter expressions with template
// parameters. Values never reach the expression string directly, which keeps
// the query text a closed set.
type filter struct{}

type filterCondition struct {
	Field    string
	Operator string
	Value    any
}

func (c *filter) Convert(cond *filterCondition) (*convertResult, error) {
	var counter int
	return c.convertCondition(cond, &counter)
}

func (c *filter) convertCondition(cond *filterCondition, counter *int) (*convertResult, error) {
	if cond == nil {
		return nil, fmt.Errorf("milvus filter condition is nil")
	}
	switch cond.Operator {
	case operatorEqual:
		return c.convertComparisonCondition(cond, counter, "==")
	case operatorAnd, operatorOr:
		return c.convertLogicalCondition(cond, counter)
	case operatorIn:
		return c.convertInCondition(cond, counter)
	case operatorArrayContains:
		return c.convertArrayContainsCondition(cond, counter)
	default:
		return nil, fmt.Errorf("unsupported operator: %v", cond.Operator)
	}
}

func (c *filter) convertComparisonCondition(
	cond *filterCondition,
	counter *int,
	operator string,
) (*convertResult, error) {
	if cond.Field == "" || cond.Value == nil {
		return nil, fmt.Errorf("milvus filter condition is nil")
	}
	paramName := c.convertParamName(cond.Field, counter)
	return &convertResult{
		exprStr: fmt.Sprintf("%s %s {%s}", cond.Field, operator, paramName),
		params:  map[string]any{paramName: cond.Value},
	}, nil
}

func (c *filter) convertLogicalCondition(cond *filterCondition, counter *int) (*convertResult, error) {
	conds, ok := cond.Value.([]*filterCondition)
	if !ok {
		return nil, fmt.Errorf("invalid logical condition value type")
	}

	var condResult *convertResult
	for _, childCond := range conds {
		childRes, err := c.convertCondition(childCond, counter)
		if err != nil {
			return nil, err
		}
		if childRes == nil || childRes.exprStr == "" {
			continue
		}
		if condResult == nil {
			condResult = childRes
			continue
		}

		condResult.exprStr = fmt.Sprintf(
			"(%s) %s (%s)",
			condResult.exprStr,
			strings.ToLower(cond.Operator),
			childRes.exprStr,
		)
		maps.Copy(condResult.params, childRes.params)
	}

	if condResult == nil {
		return nil, fmt.Errorf("empty logical condition")
	}
	return condResult, nil
}

func (c *filter) convertInCondition(cond *filterCondition, counter *int) (*convertResult, error) {
	if cond.Field == "" || cond.Value == nil {
		return nil, fmt.Errorf("milvus filter condition is nil")
	}

	s := reflect.ValueOf(cond.Value)
	if s.Kind() != reflect.Slice || s.Len() <= 0 {
		return nil, fmt.Errorf("in operator value must be a slice with at least one value: %v", cond.Value)
	}

	paramName := c.convertParamName(cond.Field, counter)
	return &convertResult{
		exprStr: fmt.Sprintf("%s in {%s}", cond.Field, paramName),
		params:  map[string]any{paramName: cond.Value},
	}, nil
}

func (c *filter) convertArrayContainsCondition(cond *filterCondition, counter *int) (*convertResult, error) {
	if cond.Field == "" || cond.Value == nil {
		return nil, fmt.Errorf("milvus filter condition is nil")
	}
	paramName := c.convertParamName(cond.Field, counter)
	return &convertResult{
		exprStr: fmt.Sprintf("array_contains(%s, {%s})", cond.Field, paramName),
		params:  map[string]any{paramName: cond.Value},
	}, nil
}

// convertParamName converts field name to a valid Milvus template parameter name.
// Milvus template parameters don't support '.' character, so we replace it with '_'.
func (c *filter) convertParamName(field string, counter *int) string {
	*counter++
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(field, ".", "_"), *counter)
}
