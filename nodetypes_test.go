package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeTypes(t *testing.T) {
	for _, typ := range []string{
		"gateway", "persistenceShard", "kafka", "genericActor", "rtShard", "actor",
		"http", "if", "delay", "function", "set",
		"start", "validator", "error", "region", "email",
	} {
		assert.True(t, IsKnownType(typ), typ)
	}
	assert.False(t, IsKnownType("webhook"))
	assert.Len(t, NodeTypes(), 16)
}

func TestDefaultFieldsFor(t *testing.T) {
	fields := DefaultFieldsFor("kafka")
	assert.Equal(t, []Field{
		{Key: "kafkaTopics", Label: "Kafka Topics", Kind: FieldText},
		{Key: "actions", Label: "Actions", Kind: FieldActions},
	}, fields)

	http := DefaultFieldsFor("http")
	assert.Equal(t, FieldSelect, http[1].Kind)
	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE"}, http[1].Options)

	assert.Nil(t, DefaultFieldsFor("webhook"))

	// Callers get a copy of the table.
	fields[0].Key = "changed"
	assert.Equal(t, "kafkaTopics", DefaultFieldsFor("kafka")[0].Key)
}

func TestPorts(t *testing.T) {
	assert.Equal(t, []string{"success", "error"}, Ports("validator"))
	assert.Equal(t, []string{"out"}, Ports("start"))
	assert.Equal(t, []string{DefaultSourceHandle}, Ports("kafka"))
	assert.Equal(t, []string{DefaultSourceHandle}, Ports("webhook"))
	assert.Empty(t, Ports("email"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Kafka", Title("kafka"))
	assert.Equal(t, "PersistenceShard", Title("persistenceShard"))
	assert.Equal(t, "", Title(""))
}
