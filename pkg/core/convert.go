package core

import (
	"github.com/homecare-labs/caremem-go/pkg/extractor"
	"github.com/homecare-labs/caremem-go/pkg/recordstore"
)

// recordToMemory converts a stored record into the domain type.
func recordToMemory(record *recordstore.Record) *Memory {
	if record == nil {
		return nil
	}
	return &Memory{
		ID:        record.ID,
		PatientID: record.PatientID,
		Category:  MemoryCategory(record.Category),
		Priority:  Priority(record.Priority),
		Content:   record.Content,
		Metadata:  record.Metadata,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		DeletedAt: record.DeletedAt,
	}
}

// memoryToRecord converts a domain memory into its storage representation.
func memoryToRecord(memory *Memory) *recordstore.Record {
	if memory == nil {
		return nil
	}
	return &recordstore.Record{
		ID:        memory.ID,
		PatientID: memory.PatientID,
		Category:  string(memory.Category),
		Priority:  string(memory.Priority),
		Content:   memory.Content,
		Metadata:  memory.Metadata,
		CreatedAt: memory.CreatedAt,
		UpdatedAt: memory.UpdatedAt,
		DeletedAt: memory.DeletedAt,
	}
}

// factToExtractedMemory converts a validated extraction fact into the
// transient domain form.
func factToExtractedMemory(fact *extractor.Fact) *ExtractedMemory {
	if fact == nil {
		return nil
	}
	return &ExtractedMemory{
		Category: MemoryCategory(fact.Category),
		Priority: Priority(fact.Priority),
		Content:  fact.Content,
		Metadata: fact.Metadata,
	}
}
