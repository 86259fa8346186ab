// Package treeio reads the syntax trees produced by the external parser.
//
// A tree document is JSON or msgpack with the same field names:
//
//	{"version": 1, "path": "prog.py", "source": "...",
//	 "body": [{"kind": "assign", "span": [0, 5], "target": "x",
//	           "target_span": [0, 1], "op": "=",
//	           "value": {"kind": "lit", "span": [4, 5], "type": "int", "value": "1"}}]}
//
// Spans are byte offsets into source. Lowering never aborts: malformed
// nodes are reported and replaced, so one bad node does not hide the rest
// of the unit from analysis.
package treeio
