// Package checkers holds quicktest checkers shared by the test suites.
package checkers

import (
	"encoding/json"
	"fmt"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// JSONPathEquals returns a checker that decodes the JSON document given as
// got (string or []byte), reads the value at path and compares it to want
// with qt.DeepEquals. Numbers decode as float64.
//
//	c.Assert(body, checkers.JSONPathEquals("$.records"), float64(3))
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

type jsonPathChecker struct {
	path string
}

func (*jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var raw []byte
	switch v := got.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		return qt.BadCheckf("first argument is not a JSON document (%T)", got)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("cannot decode JSON: %v", err)
	}
	value, err := jsonpath.Read(doc, c.path)
	if err != nil {
		note("path", c.path)
		return fmt.Errorf("cannot read path: %v", err)
	}
	note("path", c.path)
	return qt.DeepEquals.Check(value, args, note)
}
