package loan

import "makono-backend/internal/domain/kv"

// Logical names of the collections persisted under the KV store.
const (
	KeyLoans        = "loans"
	KeyDocuments    = "documents"
	KeySchedules    = "schedules"
	KeyInterestRate = "interest_rate"
)

// Keys resolves the namespaced storage keys for the lifecycle collections.
type Keys struct {
	Loans        string
	Documents    string
	Schedules    string
	InterestRate string
}

func NewKeys(namespace string) Keys {
	return Keys{
		Loans:        kv.Key(namespace, KeyLoans),
		Documents:    kv.Key(namespace, KeyDocuments),
		Schedules:    kv.Key(namespace, KeySchedules),
		InterestRate: kv.Key(namespace, KeyInterestRate),
	}
}
