/*
Package serialize converts arbitrary Go values into JSON text for reports.

Unlike encoding/json it never fails. Values JSON cannot represent degrade to
placeholder tokens instead of producing an error:

	cycles               "[Circular]"
	funcs                "[Function]"
	channels             "[Chan]"
	unsafe pointers      "[Unsupported]"
	broken marshalers    "[Unserializable]"
	NaN, +Inf, -Inf      "NaN", "Infinity", "-Infinity"

Struct fields keep their declaration order and honour `json` tags; map keys are
sorted. A Replacer can rewrite or drop values key by key while the value is
walked, the same way a JSON.stringify replacer does.
*/
package serialize
