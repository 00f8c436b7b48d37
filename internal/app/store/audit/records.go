// internal/app/store/audit/records.go
package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Operation tags stored on audit records. Creation records carry no tag.
const (
	OpModified = "Modificado"
	OpDeleted  = "Eliminado"
	OpVisited  = "Visitado"
)

// Audit record field names.
const (
	FieldOriginalID = "original_id"
	FieldOperation  = "operation"
	FieldActor      = "actor"
	FieldGroup      = "group"

	StampCreated  = "creadoEn"
	StampModified = "modificadoEn"
	StampDeleted  = "eliminadoEn"
	StampVisited  = "visitadoEn"

	// NewSuffix marks the submitted value of a field on modification records.
	NewSuffix = "_nuevo"
)

// Suffix appended to collection and group names for the shadow copy.
const shadowSuffix = "_CS"

// CollectionName returns the audit collection paired with a primary one.
func CollectionName(primary string) string {
	return primary + shadowSuffix
}

// GroupKey returns the group key under which audit records are filed.
func GroupKey(group string) string {
	return group + shadowSuffix
}

// spread copies a snapshot into a fresh record, dropping the primary _id.
func spread(group string, snapshot bson.M) bson.M {
	rec := make(bson.M, len(snapshot)+6)
	for k, v := range snapshot {
		if k == "_id" {
			continue
		}
		rec[k] = v
	}
	rec[FieldGroup] = GroupKey(group)
	return rec
}

// CreationRecord mirrors a newly created document as-is.
func CreationRecord(group string, doc bson.M, at time.Time) bson.M {
	rec := spread(group, doc)
	rec[StampCreated] = at
	return rec
}

// ModificationRecord holds the pre-update snapshot plus a <field>_nuevo
// value for every submitted field.
func ModificationRecord(group, originalID string, before bson.M, submitted map[string]string, actor string, at time.Time) bson.M {
	rec := spread(group, before)
	rec[FieldOriginalID] = originalID
	for k, v := range submitted {
		rec[k+NewSuffix] = v
	}
	rec[FieldOperation] = OpModified
	rec[FieldActor] = actor
	rec[StampModified] = at
	return rec
}

// DeletionRecord holds the pre-delete snapshot.
func DeletionRecord(group, originalID string, before bson.M, actor string, at time.Time) bson.M {
	rec := spread(group, before)
	rec[FieldOriginalID] = originalID
	rec[FieldOperation] = OpDeleted
	rec[FieldActor] = actor
	rec[StampDeleted] = at
	return rec
}

// VisitRecord holds the pre-change snapshot and the new visited value.
func VisitRecord(group, originalID string, before bson.M, visited, actor string, at time.Time) bson.M {
	rec := spread(group, before)
	rec[FieldOriginalID] = originalID
	rec["visited"+NewSuffix] = visited
	rec[FieldOperation] = OpVisited
	rec[FieldActor] = actor
	rec[StampVisited] = at
	return rec
}
