// Package client contains the client and student domain models and the
// consolidation (join + pivot) logic that produces one denormalized record
// per client.
package client

// Client represents one billing entity.
type Client struct {
	ClientID      int64  `json:"client_id"`
	Name          string `json:"name"`
	LastName      string `json:"last_name"`
	Email1        string `json:"email1"`
	Email2        string `json:"email2"`
	Handle        string `json:"handle"`
	AccountNumber string `json:"account_number"`
}

// Student represents one student row. Many students may reference one client.
type Student struct {
	StudentID          int64  `json:"student_id"`
	AssociatedClientID int64  `json:"associated_client_id"`
	StudentName        string `json:"student_name"`
	StudentLastName    string `json:"student_last_name"`
	Grade              string `json:"grade"`
}

// StudentSlot is one student's attributes inside a consolidated client record.
type StudentSlot struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Grade    string `json:"grade"`
}
