package repository

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches evaluates the subset of the MongoDB query language MemoryStore
// supports: implicit equality, $and/$or/$nor, and the field operators
// $eq $ne $gt $gte $lt $lte $in $nin $exists.
func matches(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range subFilters(cond) {
				if !matches(doc, sub) {
					return false
				}
			}
		case "$or":
			ok := false
			for _, sub := range subFilters(cond) {
				if matches(doc, sub) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		case "$nor":
			for _, sub := range subFilters(cond) {
				if matches(doc, sub) {
					return false
				}
			}
		default:
			v, present := lookup(doc, key)
			if !matchField(v, present, cond) {
				return false
			}
		}
	}
	return true
}

func subFilters(v any) []bson.M {
	var out []bson.M
	switch list := v.(type) {
	case bson.A:
		for _, item := range list {
			if m, ok := asDoc(item); ok {
				out = append(out, m)
			}
		}
	case []bson.M:
		out = list
	case []any:
		for _, item := range list {
			if m, ok := asDoc(item); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func asDoc(v any) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]any:
		return bson.M(d), true
	case bson.D:
		return d.Map(), true
	}
	return nil, false
}

// lookup resolves a dotted path through embedded documents.
func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asDoc(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func matchField(v any, present bool, cond any) bool {
	ops, ok := asDoc(cond)
	if !ok || !isOperatorDoc(ops) {
		return eqMatch(v, present, cond)
	}
	for op, arg := range ops {
		if !applyOp(op, v, present, arg) {
			return false
		}
	}
	return true
}

func isOperatorDoc(m bson.M) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func applyOp(op string, v any, present bool, arg any) bool {
	switch op {
	case "$eq":
		return eqMatch(v, present, arg)
	case "$ne":
		return !eqMatch(v, present, arg)
	case "$gt", "$gte", "$lt", "$lte":
		if !present {
			return false
		}
		return anyElem(v, func(e any) bool {
			c, ok := compare(e, arg)
			if !ok {
				return false
			}
			switch op {
			case "$gt":
				return c > 0
			case "$gte":
				return c >= 0
			case "$lt":
				return c < 0
			default:
				return c <= 0
			}
		})
	case "$in":
		for _, candidate := range listOf(arg) {
			if eqMatch(v, present, candidate) {
				return true
			}
		}
		return false
	case "$nin":
		for _, candidate := range listOf(arg) {
			if eqMatch(v, present, candidate) {
				return false
			}
		}
		return true
	case "$exists":
		want, _ := arg.(bool)
		return present == want
	}
	// unsupported operators never match
	return false
}

// eqMatch follows MongoDB equality: a missing field equals null, and an
// array field matches when any element does.
func eqMatch(v any, present bool, want any) bool {
	if want == nil {
		return !present || v == nil
	}
	if !present {
		return false
	}
	if equal(v, want) {
		return true
	}
	if arr, ok := v.(bson.A); ok {
		for _, e := range arr {
			if equal(e, want) {
				return true
			}
		}
	}
	return false
}

func anyElem(v any, fn func(any) bool) bool {
	if arr, ok := v.(bson.A); ok {
		for _, e := range arr {
			if fn(e) {
				return true
			}
		}
		return false
	}
	return fn(v)
}

func listOf(v any) []any {
	switch l := v.(type) {
	case bson.A:
		return l
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return false
}

// compare orders two scalar values of the same BSON family. ok is false
// when the values are not comparable.
func compare(a, b any) (int, bool) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp3(x < y, x > y), true
		}
		return 0, false
	}
	if x, ok := millis(a); ok {
		if y, ok := millis(b); ok {
			return cmp3(x < y, x > y), true
		}
		return 0, false
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp3(!x && y, x && !y), true
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex()), true
		}
	}
	return 0, false
}

func cmp3(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func millis(v any) (int64, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return int64(t), true
	case time.Time:
		return t.UnixMilli(), true
	}
	return 0, false
}

// less orders documents by a sort document. Missing or null values
// sort first in ascending order, as in MongoDB.
func less(a, b bson.M, order bson.D) bool {
	for _, key := range order {
		dir, _ := number(key.Value)
		av, aok := lookup(a, key.Key)
		bv, bok := lookup(b, key.Key)
		c := sortCompare(av, aok && av != nil, bv, bok && bv != nil)
		if c == 0 {
			continue
		}
		if dir < 0 {
			return c > 0
		}
		return c < 0
	}
	return false
}

func sortCompare(a any, aok bool, b any, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	c, _ := compare(a, b)
	return c
}
