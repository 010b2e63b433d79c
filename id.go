package admitq

import "github.com/xraph/admitq/id"

// ID is the primary identifier type for all admitq entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
