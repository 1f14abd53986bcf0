// Package schema describes document types and their fields, including the
// `hide` and legacy `condition` options that drive conditional visibility.
//
// Types are usually loaded from YAML (or JSON) files:
//
//	name: article
//	fields:
//	  - name: kind
//	    type: string
//	  - name: summary
//	    type: string
//	    hide: 'kind != "long"'
//	    clearOnHidden: true
//	  - name: internal
//	    type: boolean
//	    hide: true
//	  - name: cta
//	    type: object
//	    hide: { predicate: noCta }
//
// Go predicates cannot live in files, so mappings reference them by name and
// a Registry resolves the name at evaluation time.
package schema
