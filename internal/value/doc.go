// Package value provides the typed column value system of the cache.
//
// This package contains the value model only. Every other internal package
// imports value; value imports only qlerr. This keeps the type system the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - The variant set is closed (sealed Value interface)
//   - Equality is structural and type-strict: I8(1) != I16(1)
//   - Ordering is defined only within a variant; anything else is an
//     INCOMPATIBLE_TYPES error, never a silent coercion
//   - Values are immutable; 128-bit payloads are copied on the way in and out
package value
