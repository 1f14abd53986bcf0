// Package valuepath locates values inside content documents and resolves the
// ancestor chain ("parents") of a field from its value path.
//
// A value path is an ordered list of segments. Plain keys select a mapping
// entry while keyed references select the element of a sequence whose `_key`
// matches, so paths stay stable when array items are reordered:
//
//	valuepath.Path{valuepath.Key("sections"), valuepath.KeyRef("k1"), valuepath.Key("title")}
//	sections[_key=="k1"].title
//
// Resolution is best-effort and total: unknown keys and unmatched references
// fall back to an empty mapping instead of failing, and documents are never
// mutated.
package valuepath
