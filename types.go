package gonsul

// KVEntry is one key's entry as returned by the KV read endpoint.
//
// Value carries the stored bytes exactly as the agent sent them,
// base64-encoded; callers decode it when they need the raw bytes.
// See https://www.consul.io/api/kv.html#read-key for field semantics.
type KVEntry struct {
	CreateIndex int64  `json:"CreateIndex"`
	ModifyIndex int64  `json:"ModifyIndex"`
	LockIndex   int64  `json:"LockIndex"`
	Key         string `json:"Key"`
	Flags       uint64 `json:"Flags"`
	Value       string `json:"Value"`
	Session     string `json:"Session,omitempty"`
}

// ServiceNode is one node registered under a service, as returned by
// the catalog endpoint.
//
// See https://www.consul.io/api/catalog.html#list-nodes-for-service.
type ServiceNode struct {
	Kind        string            `json:"ServiceKind"`
	ID          string            `json:"ID"`
	ServiceID   string            `json:"ServiceID"`
	ServiceName string            `json:"ServiceName"`
	Tags        []string          `json:"ServiceTags"`
	Meta        map[string]string `json:"ServiceMeta"`
	Node        string            `json:"Node"`
	Address     string            `json:"Address"`
	Datacenter  string            `json:"Datacenter"`
}
