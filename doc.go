// Package vecstore provides top-level documentation for the go-vecstore
// module. The module is organized as multiple subpackages (e.g. `store`,
// `store/manticore`, `store/pgvector`, `embed`, and `rag`).
//
// Importers typically depend on the subpackages directly, for example:
//
//	import (
//	  "github.com/KamdynS/go-vecstore/store"
//	  "github.com/KamdynS/go-vecstore/store/manticore"
//	  "github.com/KamdynS/go-vecstore/embed"
//	)
//
// The root package intentionally keeps a small surface area to avoid
// stuttering and to keep subpackages composable.
package vecstore
