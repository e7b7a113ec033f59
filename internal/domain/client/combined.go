package client

import (
	"fmt"
	"sort"
	"strconv"
)

// CombinedClient is the consolidated per-client record: all client fields plus
// the client's students as an ordered sequence of slots. The record is kept
// nested in memory and only flattened to fixed-width columns at the
// serialization boundary (search document, display table).
type CombinedClient struct {
	Client
	Students []StudentSlot `json:"students"`
}

// Combine inner-joins students to clients on the associated client id and
// groups the result into one CombinedClient per client.
//
// Clients with zero students are dropped; this mirrors the inner-join
// semantics of the consolidation and is intentional, not an oversight.
// Within each client, students are ordered by StudentID before slot
// assignment so repeated runs over the same data produce identical output.
// The returned slice is ordered by ClientID.
func Combine(clients []Client, students []Student) []CombinedClient {
	byClient := make(map[int64][]Student, len(clients))
	for _, s := range students {
		byClient[s.AssociatedClientID] = append(byClient[s.AssociatedClientID], s)
	}

	combined := make([]CombinedClient, 0, len(clients))
	for _, c := range clients {
		group, ok := byClient[c.ClientID]
		if !ok {
			continue // inner join: no students, no row
		}
		sort.Slice(group, func(i, j int) bool { return group[i].StudentID < group[j].StudentID })

		slots := make([]StudentSlot, 0, len(group))
		for _, s := range group {
			slots = append(slots, StudentSlot{
				Name:     s.StudentName,
				LastName: s.StudentLastName,
				Grade:    s.Grade,
			})
		}
		combined = append(combined, CombinedClient{Client: c, Students: slots})
	}

	sort.Slice(combined, func(i, j int) bool { return combined[i].ClientID < combined[j].ClientID })
	return combined
}

// MaxStudents returns the largest student count across the combined records.
// It determines the column width of the flattened table.
func MaxStudents(combined []CombinedClient) int {
	max := 0
	for _, c := range combined {
		if len(c.Students) > max {
			max = len(c.Students)
		}
	}
	return max
}

// SearchDocument is the flattened, schema-less form of a CombinedClient,
// keyed by the client id. It is what gets published to the search index.
type SearchDocument struct {
	ID     string
	Fields map[string]interface{}
}

// SearchDocument flattens the record into a schema-less search document.
// Student slots become columns student_name_k / student_last_name_k / grade_k
// for k = 1..width; records with fewer students than width simply omit the
// higher-indexed columns.
func (c *CombinedClient) SearchDocument(width int) SearchDocument {
	doc := map[string]interface{}{
		"client_id":      c.ClientID,
		"name":           c.Name,
		"last_name":      c.LastName,
		"email1":         c.Email1,
		"email2":         c.Email2,
		"handle":         c.Handle,
		"account_number": c.AccountNumber,
	}
	for i, slot := range c.Students {
		if i >= width {
			break
		}
		k := i + 1
		doc[fmt.Sprintf("student_name_%d", k)] = slot.Name
		doc[fmt.Sprintf("student_last_name_%d", k)] = slot.LastName
		doc[fmt.Sprintf("grade_%d", k)] = slot.Grade
	}
	return SearchDocument{
		ID:     strconv.FormatInt(c.ClientID, 10),
		Fields: doc,
	}
}
