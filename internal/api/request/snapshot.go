package request

// SnapshotRequest is the body for POST /api/snapshot.
type SnapshotRequest struct {
	Note string `json:"note,omitempty"`
}
