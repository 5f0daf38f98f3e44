package memory_test

import (
	"testing"

	"github.com/aretw0/drills/pkg/adapters/memory"
	"github.com/aretw0/drills/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRecordStoreContract(t, store)
}
