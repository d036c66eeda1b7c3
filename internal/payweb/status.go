package payweb

// TransactionStatus is the closed set of statuses the provider reports.
// Anything outside it parses as StatusUnknown and is never treated as
// success.
type TransactionStatus int

const (
	StatusUnknown   TransactionStatus = 0
	StatusApproved  TransactionStatus = 1
	StatusDeclined  TransactionStatus = 2
	StatusCancelled TransactionStatus = 4
)

// ParseTransactionStatus maps the wire value to a TransactionStatus.
func ParseTransactionStatus(code string) TransactionStatus {
	switch code {
	case "1":
		return StatusApproved
	case "2":
		return StatusDeclined
	case "4":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

func (s TransactionStatus) String() string {
	switch s {
	case StatusApproved:
		return "Approved"
	case StatusDeclined:
		return "Declined"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status resolves the transaction one way or
// the other.
func (s TransactionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined || s == StatusCancelled
}
