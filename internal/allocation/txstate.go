package allocation

// TxState tracks one allocation request through the commit protocol.
type TxState string

const (
	TxStarted         TxState = "STARTED"
	TxValidated       TxState = "VALIDATED"
	TxAllocated       TxState = "ALLOCATED"
	TxCommitted       TxState = "COMMITTED"
	TxConflictAborted TxState = "CONFLICT_ABORTED"
	TxDomainAborted   TxState = "DOMAIN_ABORTED"
)

var validNext = map[TxState]map[TxState]bool{
	TxStarted:         {TxValidated: true, TxDomainAborted: true},
	TxValidated:       {TxAllocated: true, TxDomainAborted: true},
	TxAllocated:       {TxCommitted: true, TxConflictAborted: true},
	TxCommitted:       {},
	TxConflictAborted: {},
	TxDomainAborted:   {},
}

func CanTransition(from, to TxState) bool {
	return validNext[from][to]
}
