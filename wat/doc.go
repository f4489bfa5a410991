// Package wat renders generated modules in the WebAssembly text format.
//
// The layout is fixed: type declarations in signature-index order, one
// funcref table sized to the function count, an element segment listing
// every function at offset zero, the export, then one func per generated
// body:
//
//	(module
//	  (type (func (param i32) (result i32)))
//	  (table 1 funcref)
//	  (elem (i32.const 0) 0)
//	  (export "start" (func 0))
//	  (func $0 (type 0) (param i32) (result i32)
//	    (local $local0 i32)
//	    local.get 0
//	  )
//	)
//
// Structured instructions are written folded; everything else is one
// instruction per line. Parameters are referenced by index and declared
// locals by name.
package wat
