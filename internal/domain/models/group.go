// internal/domain/models/group.go
package models

// Group is a named trip group. The name is the key; members join by
// presenting the shared passphrase. Groups live in the relational store.
type Group struct {
	Name       string `json:"name"`
	Passphrase string `json:"passphrase,omitempty"`
}
