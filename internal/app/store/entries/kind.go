// internal/app/store/entries/kind.go
package entries

import (
	"github.com/dalemusser/deruta/internal/app/system/apperr"
	"github.com/dalemusser/deruta/internal/app/system/normalize"
)

// Kind describes one group-owned document collection.
type Kind struct {
	Collection string   // primary collection; audit records go to Collection+"_CS"
	Fields     []string // mutable fields, all rewritten on update
	Required   []string // fields that must be non-blank
	Filters    []string // equality filters accepted by Query besides group
	Visitable  bool     // supports SetVisited
}

// Items are the group's points of interest.
var Items = Kind{
	Collection: "items",
	Fields:     []string{"name", "description", "category", "province", "visited", "website", "author"},
	Filters:    []string{"category", "visited"},
	Visitable:  true,
}

// Calendar holds the group's scheduled entries.
var Calendar = Kind{
	Collection: "calendar",
	Fields:     []string{"day_label", "description", "day_label_end", "start_iso", "end_iso", "website", "author"},
	Required:   []string{"day_label"},
}

// Normalize reads every field of the kind from body. Absent, null and
// blank values become "". Required fields must be present.
func (k Kind) Normalize(body map[string]any) (map[string]string, error) {
	fields, err := normalize.Fields(body, k.Fields)
	if err != nil {
		return nil, err
	}
	if err := k.checkRequired(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (k Kind) checkRequired(fields map[string]string) error {
	for _, name := range k.Required {
		if fields[name] == "" {
			return apperr.Validation(`missing field "` + name + `"`)
		}
	}
	return nil
}

// complete returns a copy of fields holding exactly the kind's fields.
func (k Kind) complete(fields map[string]string) map[string]string {
	out := make(map[string]string, len(k.Fields))
	for _, name := range k.Fields {
		out[name] = fields[name]
	}
	return out
}
