package patron

import "github.com/xraph/patron/id"

// ID is the primary identifier type for all Patron entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
