package uuid_test

import (
	"testing"

	"github.com/sablehttp/sable/uuid"
)

func TestUUIDConversion(t *testing.T) {
	id := uuid.NewV4()
	idStr := id.String()

	idParsed, err := uuid.Parse(idStr)
	if err != nil {
		t.Fatal(err)
	}

	if id != idParsed {
		t.Error("parse failed")
	}
}

func BenchmarkUUIDToString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		id := uuid.NewV4()
		idStr := id.String()
		uuid.Parse(idStr)
	}
}
