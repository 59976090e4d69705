package testutil

import (
	"fmt"

	"github.com/roach88/pagesweep/internal/record"
)

// Rec builds a record whose payload carries the stamp and an id.
func Rec(stamp string, id int) record.Record {
	r, err := record.NewRecord(map[string]any{"id": id, "stamp": stamp})
	if err != nil {
		panic(fmt.Sprintf("testutil.Rec: %v", err))
	}
	return r
}

// Page builds a page of records from stamps. Ids count up from firstID.
func Page(firstID int, stamps ...string) record.Page {
	page := make(record.Page, 0, len(stamps))
	for i, s := range stamps {
		page = append(page, Rec(s, firstID+i))
	}
	return page
}
