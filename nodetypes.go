package flow

import "strings"

// FieldKind selects how the editor renders a configuration field.
type FieldKind string

const (
	FieldText    FieldKind = "text"
	FieldNumber  FieldKind = "number"
	FieldSelect  FieldKind = "select"
	FieldJSON    FieldKind = "json"
	FieldActions FieldKind = "actions"
)

// Field describes one configuration field of a node type.
type Field struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"type"`
	Options []string  `json:"options,omitempty"`
}

// NodeType is an entry of the closed step-kind table.
type NodeType struct {
	Type   string   `json:"type"`
	Label  string   `json:"label"`
	Fields []Field  `json:"fields"`
	Ports  []string `json:"ports"`
}

var actionsField = Field{Key: "actions", Label: "Actions", Kind: FieldActions}

var boolOptions = []string{"true", "false"}

var singlePort = []string{DefaultSourceHandle}

// nodeTypes is ordered the way the editor palette lists them.
var nodeTypes = []NodeType{
	{Type: "gateway", Label: "Gateway", Ports: singlePort, Fields: []Field{actionsField}},
	{Type: "persistenceShard", Label: "Persistence Shard", Ports: singlePort, Fields: []Field{
		{Key: "gpType", Label: "GP Type", Kind: FieldText},
		{Key: "shardName", Label: "Shard Name", Kind: FieldText},
		{Key: "shardRole", Label: "Shard Role", Kind: FieldText},
		{Key: "numberOfShards", Label: "Number of Shards", Kind: FieldNumber},
		{Key: "shardKey", Label: "Shard Key", Kind: FieldText},
		{Key: "copyKeys", Label: "Copy Keys", Kind: FieldText},
		{Key: "enrichKeys", Label: "Enrich Keys", Kind: FieldText},
		{Key: "filterKeys", Label: "Filter Keys", Kind: FieldText},
		actionsField,
	}},
	{Type: "kafka", Label: "Kafka", Ports: singlePort, Fields: []Field{
		{Key: "kafkaTopics", Label: "Kafka Topics", Kind: FieldText},
		actionsField,
	}},
	{Type: "genericActor", Label: "Generic Actor", Ports: singlePort, Fields: []Field{
		{Key: "gpType", Label: "GP Type", Kind: FieldText},
		{Key: "totalInstances", Label: "Total Instances", Kind: FieldNumber},
		{Key: "routeesPaths", Label: "Routees Paths", Kind: FieldText},
		{Key: "allowLocalRoutees", Label: "Allow Local Routees", Kind: FieldSelect, Options: boolOptions},
		{Key: "userRoles", Label: "User Roles", Kind: FieldText},
		actionsField,
	}},
	{Type: "rtShard", Label: "Realtime Shard", Ports: singlePort, Fields: []Field{
		{Key: "gpType", Label: "GP Type", Kind: FieldText},
		{Key: "shardName", Label: "Shard Name", Kind: FieldText},
		{Key: "shardRole", Label: "Shard Role", Kind: FieldText},
		{Key: "numberOfShards", Label: "Number of Shards", Kind: FieldNumber},
		actionsField,
	}},
	{Type: "actor", Label: "Actor", Ports: singlePort, Fields: []Field{
		{Key: "reply", Label: "Reply", Kind: FieldSelect, Options: boolOptions},
		actionsField,
	}},

	{Type: "http", Label: "HTTP Request", Ports: singlePort, Fields: []Field{
		{Key: "url", Label: "URL", Kind: FieldText},
		{Key: "method", Label: "Method", Kind: FieldSelect, Options: []string{"GET", "POST", "PUT", "DELETE"}},
		{Key: "headers", Label: "Headers", Kind: FieldJSON},
	}},
	{Type: "if", Label: "IF", Ports: singlePort, Fields: []Field{
		{Key: "condition", Label: "Condition", Kind: FieldText},
	}},
	{Type: "delay", Label: "Delay", Ports: singlePort, Fields: []Field{
		{Key: "delayTime", Label: "Delay (ms)", Kind: FieldNumber},
	}},
	{Type: "function", Label: "Function", Ports: singlePort, Fields: []Field{
		{Key: "expression", Label: "Expression", Kind: FieldText},
	}},
	{Type: "set", Label: "Set", Ports: singlePort, Fields: []Field{
		{Key: "fields", Label: "Fields", Kind: FieldJSON},
	}},

	// Registration pipeline steps driven by the simulator.
	{Type: "start", Label: "User Registration", Ports: []string{"out"}},
	{Type: "validator", Label: "Validator", Ports: []string{"success", "error"}},
	{Type: "error", Label: "Error Handler"},
	{Type: "region", Label: "Region Process", Ports: []string{"out"}},
	{Type: "email", Label: "Welcome Email"},
}

var nodeTypeIndex = func() map[string]int {
	m := make(map[string]int, len(nodeTypes))
	for i, t := range nodeTypes {
		m[t.Type] = i
	}
	return m
}()

// NodeTypes returns the full type table.
func NodeTypes() []NodeType {
	out := make([]NodeType, len(nodeTypes))
	copy(out, nodeTypes)
	return out
}

// IsKnownType reports whether t is part of the step-kind table.
func IsKnownType(t string) bool {
	_, ok := nodeTypeIndex[t]
	return ok
}

// DefaultFieldsFor returns the configuration fields rendered for t, or nil for unknown types.
// Metadata keys outside this list are still accepted.
func DefaultFieldsFor(t string) []Field {
	i, ok := nodeTypeIndex[t]
	if !ok {
		return nil
	}
	out := make([]Field, len(nodeTypes[i].Fields))
	copy(out, nodeTypes[i].Fields)
	return out
}

// Ports returns the output handles of t. Unknown types expose the default source handle.
func Ports(t string) []string {
	i, ok := nodeTypeIndex[t]
	if !ok {
		return []string{DefaultSourceHandle}
	}
	return append([]string(nil), nodeTypes[i].Ports...)
}

// Title upper-cases the first letter of t: "kafka" becomes "Kafka".
func Title(t string) string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}
