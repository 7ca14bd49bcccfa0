package msgtable

import (
	"fmt"

	"github.com/goetzr/dump-msg-tables/internal/resid"
)

// ResourceType identifies message-table resources within a module
// (RT_MESSAGETABLE).
var ResourceType = resid.Ordinal(11)

// Locator finds resources inside an opened module. Enumeration order is the
// module's own declaration order and must be stable across calls; fetched
// byte views are read-only and stay valid until the module is closed.
type Locator interface {
	ResourceIDs(typ resid.ID) ([]resid.ID, error)
	ResourceData(id, typ resid.ID) ([]byte, error)
}

// Dump decodes every message table in the module, concatenating entries in
// enumeration discovery order. The first enumeration, fetch, or decode
// failure aborts the whole dump; partial results are never returned as
// success.
func Dump(loc Locator) ([]Entry, error) {
	ids, err := loc.ResourceIDs(ResourceType)
	if err != nil {
		return nil, fmt.Errorf("enumerate message table resources: %w", err)
	}

	var entries []Entry
	for _, id := range ids {
		decoded, err := DumpResource(loc, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, decoded...)
	}
	return entries, nil
}

// DumpResource fetches and decodes a single message-table resource.
func DumpResource(loc Locator, id resid.ID) ([]Entry, error) {
	data, err := loc.ResourceData(id, ResourceType)
	if err != nil {
		return nil, fmt.Errorf("resource %v: %w", id, err)
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("resource %v: %w", id, err)
	}
	return entries, nil
}
